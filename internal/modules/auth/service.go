package auth

import (
	"context"
	"errors"
	"fmt"

	"museumbooking/internal/domain"
	"museumbooking/internal/pkg/clock"
	"museumbooking/internal/pkg/logger"
	"museumbooking/internal/pkg/validator"
	"museumbooking/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// Service contains all business logic for authentication
type Service struct {
	users  *repository.UserRepository
	tokens *TokenService
	jwt    AccessTokenIssuer
	clock  clock.Clock
}

func NewService(users *repository.UserRepository, tokens *TokenService, jwt AccessTokenIssuer, clk clock.Clock) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		jwt:    jwt,
		clock:  clk,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         req.Name,
		Surname:      req.Surname,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hashedPassword,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	logger.FromContext(ctx).WithField("user_id", user.ID).Info("user registered")
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session, err := s.newSession(ctx, user, func() (IssuedToken, error) {
		return s.tokens.Issue(ctx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	session.User = user
	return session, nil
}

// Refresh exchanges a refresh token for a new access token and a rotated refresh token.
func (s *Service) Refresh(ctx context.Context, raw string) (*Session, error) {
	current, err := s.tokens.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidTokenState
		}
		return nil, err
	}
	return s.newSession(ctx, user, func() (IssuedToken, error) {
		return s.tokens.Rotate(ctx, current)
	})
}

func (s *Service) Logout(ctx context.Context, raw string) error {
	return s.tokens.Revoke(ctx, raw)
}

func (s *Service) Me(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile changes the caller's own contact details. The admin flag is not reachable here.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(user); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	logger.FromContext(ctx).WithField("user_id", userID).Info("profile updated")
	user.PasswordHash = ""
	return user, nil
}

// ChangePassword also revokes every refresh token of the user.
func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	if err := validator.Struct(req); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	return s.tokens.RevokeAll(ctx, userID)
}

func (s *Service) newSession(ctx context.Context, user *domain.User, refresh func() (IssuedToken, error)) (*Session, error) {
	issued, err := refresh()
	if err != nil {
		return nil, err
	}
	access, err := s.jwt.GenerateToken(user.ID, string(user.Role()))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	user.PasswordHash = ""
	return &Session{
		AccessToken:      access,
		TokenType:        "bearer",
		ExpiresIn:        int(s.jwt.TTL().Seconds()),
		RefreshToken:     issued.Raw,
		RefreshExpiresAt: issued.ExpiresAt,
	}, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
