package auth

import (
	"context"
	"testing"
	"time"

	"museumbooking/internal/domain"
	"museumbooking/internal/pkg/clock"
	"museumbooking/internal/pkg/jwt"
	"museumbooking/internal/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*Service, *jwt.Service) {
	t.Helper()
	store := testutil.NewStore(t)
	clk := &clock.Fixed{T: time.Now().UTC()}
	jwtSvc := jwt.New("test-secret", 15*time.Minute)
	tokens := NewTokenService(store, "pepper", refreshTTL, clk)
	return NewService(store.Users, tokens, jwtSvc, clk), jwtSvc
}

var registration = RegisterRequest{
	Name:     "Grace",
	Surname:  "Hopper",
	Email:    "Grace@Example.com",
	Phone:    "+39 02 555",
	Password: "s3cret-pass",
}

func TestService_Register(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registration)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "grace@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.Equal(t, domain.RoleUser, user.Role())

	_, err = svc.Register(ctx, registration)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	assert.ErrorIs(t, err, domain.ErrConflict)

	bad := registration
	bad.Email = "not-an-email"
	_, err = svc.Register(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestService_LoginRefreshLogout(t *testing.T) {
	svc, jwtSvc := newAuthService(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, registration)
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: registration.Email, Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := svc.Login(ctx, LoginRequest{Email: "grace@example.com", Password: registration.Password})
	require.NoError(t, err)
	assert.Equal(t, "bearer", session.TokenType)
	assert.Equal(t, 900, session.ExpiresIn)
	require.NotNil(t, session.User)
	assert.Empty(t, session.User.PasswordHash)

	claims, err := jwtSvc.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "user", claims.Role)

	refreshed, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, refreshed.RefreshToken)

	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidTokenState, "replaying a rotated token fails")

	require.NoError(t, svc.Logout(ctx, refreshed.RefreshToken))
	_, err = svc.Refresh(ctx, refreshed.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidTokenState)
}

func TestService_ChangePasswordRevokesSessions(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, registration)
	require.NoError(t, err)
	session, err := svc.Login(ctx, LoginRequest{Email: registration.Email, Password: registration.Password})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "another-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, ChangePasswordRequest{
		CurrentPassword: registration.Password,
		NewPassword:     "another-pass",
	}))

	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidTokenState)

	_, err = svc.Login(ctx, LoginRequest{Email: registration.Email, Password: "another-pass"})
	assert.NoError(t, err)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hopper", me.Surname)
}

func TestService_UpdateProfile(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, registration)
	require.NoError(t, err)

	other := registration
	other.Email = "ada@example.com"
	_, err = svc.Register(ctx, other)
	require.NoError(t, err)

	phone := "+39 011 777"
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, "Grace", updated.Name, "absent fields are kept")
	assert.Empty(t, updated.PasswordHash)

	email := "New@Example.com"
	updated, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)

	taken := "ADA@example.com"
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	blank := "  "
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", me.Name)
	assert.Equal(t, phone, me.Phone)

	_, err = svc.UpdateProfile(ctx, 9999, UpdateProfileRequest{Phone: &phone})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
