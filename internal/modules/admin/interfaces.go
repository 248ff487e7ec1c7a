package admin

import "context"

// SessionRevoker ends every refresh session of a user. Implemented by auth.TokenService.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID int64) error
}
