package domain

import "time"

// RefreshToken stores refresh tokens for users.
//
// Security notes:
// - We never store the raw token in DB, only its keyed SHA-256 hash (TokenHash).
// - On refresh we rotate tokens: old token is revoked and replaced by a new one.
// - Issuing a token revokes every other active token of the same user.
type RefreshToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.Revoked && !t.IsExpired(now)
}
