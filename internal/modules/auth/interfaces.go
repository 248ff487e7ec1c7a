package auth

import "time"

// AccessTokenIssuer signs short lived access tokens. Implemented by pkg/jwt.Service.
type AccessTokenIssuer interface {
	GenerateToken(userID int64, role string) (string, error)
	TTL() time.Duration
}
