package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"museumbooking/internal/domain"
	"museumbooking/internal/pkg/clock"
	"museumbooking/internal/pkg/logger"
	"museumbooking/internal/repository"

	"github.com/sirupsen/logrus"
)

// refreshSecretBytes is 384 bits of entropy before encoding.
const refreshSecretBytes = 48

// IssuedToken carries the raw refresh secret. It is never persisted or logged.
type IssuedToken struct {
	ID        int64
	Raw       string
	ExpiresAt time.Time
}

// TokenService owns refresh tokens. A user has at most one active token: issuing revokes the
// others, and rotation makes every secret single use.
type TokenService struct {
	store  *repository.Store
	pepper []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenService(store *repository.Store, pepper string, ttl time.Duration, clk clock.Clock) *TokenService {
	return &TokenService{
		store:  store,
		pepper: []byte(pepper),
		ttl:    ttl,
		clock:  clk,
	}
}

func (s *TokenService) hash(raw string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// Issue revokes the user's active tokens and stores a new one in a single transaction. The user
// row lock serialises concurrent issuance for the same user.
func (s *TokenService) Issue(ctx context.Context, userID int64) (IssuedToken, error) {
	var issued IssuedToken
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.LockByID(ctx, userID); err != nil {
			return err
		}
		var err error
		issued, err = s.issueLocked(ctx, tx, userID)
		return err
	})
	if err != nil {
		return IssuedToken{}, err
	}
	logger.FromContext(ctx).WithFields(logrus.Fields{"user_id": userID, "token_id": issued.ID}).Info("refresh token issued")
	return issued, nil
}

func (s *TokenService) issueLocked(ctx context.Context, tx *repository.Store, userID int64) (IssuedToken, error) {
	now := s.clock.Now()

	if _, err := tx.RefreshTokens.RevokeActiveForUser(ctx, userID, now); err != nil {
		return IssuedToken{}, err
	}

	buf := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return IssuedToken{}, fmt.Errorf("generate refresh token: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)

	t := &domain.RefreshToken{
		UserID:    userID,
		TokenHash: s.hash(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := tx.RefreshTokens.Create(ctx, t); err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{ID: t.ID, Raw: raw, ExpiresAt: t.ExpiresAt}, nil
}

// Validate resolves a raw secret to its active token. Unknown, revoked and expired secrets all
// yield the same domain.ErrInvalidTokenState.
func (s *TokenService) Validate(ctx context.Context, raw string) (*domain.RefreshToken, error) {
	if raw == "" {
		return nil, domain.ErrInvalidTokenState
	}
	want := s.hash(raw)

	t, err := s.store.RefreshTokens.GetByHash(ctx, want)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidTokenState
		}
		return nil, err
	}

	match := subtle.ConstantTimeCompare([]byte(t.TokenHash), []byte(want)) == 1
	if !match || !t.IsActive(s.clock.Now()) {
		return nil, domain.ErrInvalidTokenState
	}
	return t, nil
}

// Rotate consumes t and issues its replacement. Of two concurrent rotations of the same token
// only one wins; the other gets domain.ErrInvalidTokenState, as does a token that expired after
// it was validated.
func (s *TokenService) Rotate(ctx context.Context, t *domain.RefreshToken) (IssuedToken, error) {
	var issued IssuedToken
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.LockByID(ctx, t.UserID); err != nil {
			return err
		}
		n, err := tx.RefreshTokens.RevokeActiveByID(ctx, t.ID, s.clock.Now())
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrInvalidTokenState
		}
		issued, err = s.issueLocked(ctx, tx, t.UserID)
		return err
	})
	if err != nil {
		return IssuedToken{}, err
	}
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"user_id":      t.UserID,
		"token_id":     issued.ID,
		"rotated_from": t.ID,
	}).Info("refresh token rotated")
	return issued, nil
}

// Revoke invalidates raw if it is still active. Unknown secrets are ignored.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	t, err := s.Validate(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTokenState) {
			return nil
		}
		return err
	}
	_, err = s.store.RefreshTokens.RevokeByID(ctx, t.ID)
	return err
}

func (s *TokenService) RevokeAll(ctx context.Context, userID int64) error {
	_, err := s.store.RefreshTokens.RevokeActiveForUser(ctx, userID, s.clock.Now())
	return err
}

// PurgeExpired deletes expired tokens and revoked tokens created before revokedBefore.
func (s *TokenService) PurgeExpired(ctx context.Context, revokedBefore time.Time) (int64, error) {
	n, err := s.store.RefreshTokens.DeleteStale(ctx, s.clock.Now(), revokedBefore)
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"deleted":        n,
		"revoked_before": revokedBefore.Format(time.RFC3339),
	}).Info("refresh tokens purged")
	return n, nil
}
