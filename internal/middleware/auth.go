package middleware

import (
	"net/http"
	"strings"

	"museumbooking/internal/domain"
	"museumbooking/internal/pkg/jwt"
	"museumbooking/internal/pkg/logger"
	"museumbooking/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// JWTAuth verifies the bearer access token and stores user_id and role in the gin context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)

		entry := logger.FromContext(c.Request.Context()).WithField("user_id", claims.UserID)
		c.Request = c.Request.WithContext(logger.ToContext(c.Request.Context(), entry))

		c.Next()
	}
}

// Principal returns the authenticated caller set by JWTAuth.
func Principal(c *gin.Context) (domain.Principal, bool) {
	id := c.GetInt64(ctxUserID)
	if id == 0 {
		return domain.Principal{}, false
	}
	return domain.Principal{
		ID:      id,
		IsAdmin: c.GetString(ctxRole) == string(domain.RoleAdmin),
	}, true
}

// MustPrincipal writes a 401 and returns false when no caller is authenticated.
func MustPrincipal(c *gin.Context) (domain.Principal, bool) {
	p, ok := Principal(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		c.Abort()
	}
	return p, ok
}
