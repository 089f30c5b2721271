package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/domain/dto"
	"github.com/guttosm/hackathon-service/internal/i18n"
	"github.com/guttosm/hackathon-service/internal/service"
)

// Gin context keys set by the authentication middleware.
const (
	SubjectKey = "subject"
	RoleKey    = "role"
	ClaimsKey  = "claims"
)

// JWTAuth validates the bearer token and stores its subject and role in
// the gin context.
func JWTAuth(tokens service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")

		switch {
		case header == "" || (ok && strings.TrimSpace(token) == ""):
			abortUnauthorized(c, i18n.ErrKeyTokenRequired)
			return
		case !ok:
			abortUnauthorized(c, i18n.ErrKeyInvalidToken)
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, i18n.ErrKeyInvalidToken)
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Set(RoleKey, claims.Role)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole lets the request through only when the authenticated role
// is one of roles. Use after JWTAuth or APIKeyAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		if role == "" {
			abortUnauthorized(c, i18n.ErrKeyUnauthorized)
			return
		}
		if !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewError(dto.ErrCodeForbidden, i18n.T(c, i18n.ErrKeyForbidden)).
					WithRequestID(GetRequestID(c)))
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, key string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewError(dto.ErrCodeUnauthorized, i18n.T(c, key)).
			WithRequestID(GetRequestID(c)))
}
