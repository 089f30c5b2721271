package middleware

import (
	"crypto/sha256"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/domain/dto"
	"github.com/guttosm/hackathon-service/internal/i18n"
	"github.com/guttosm/hackathon-service/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyHeader is the HTTP header carrying an admin API key.
const APIKeyHeader = "X-API-Key"

// APIKeyVerifier checks presented keys against bcrypt hashes. Keys that
// verified once are remembered by digest so bcrypt runs once per key.
type APIKeyVerifier struct {
	hashes   [][]byte
	verified sync.Map
}

// NewAPIKeyVerifier creates a verifier for the given bcrypt hashes.
func NewAPIKeyVerifier(hashes []string) *APIKeyVerifier {
	v := &APIKeyVerifier{}
	for _, h := range hashes {
		if h != "" {
			v.hashes = append(v.hashes, []byte(h))
		}
	}
	return v
}

// Enabled reports whether any hash is configured.
func (v *APIKeyVerifier) Enabled() bool {
	return len(v.hashes) > 0
}

// Verify reports whether key matches one of the hashes.
func (v *APIKeyVerifier) Verify(key string) bool {
	if key == "" {
		return false
	}
	digest := sha256.Sum256([]byte(key))
	if _, ok := v.verified.Load(digest); ok {
		return true
	}
	for _, h := range v.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(key)) == nil {
			v.verified.Store(digest, struct{}{})
			return true
		}
	}
	return false
}

// APIKeyAuth rejects requests without a valid X-API-Key. A verifier with
// no hashes lets every request through.
func APIKeyAuth(v *APIKeyVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v == nil || !v.Enabled() {
			c.Next()
			return
		}

		key := c.GetHeader(APIKeyHeader)

		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewError(dto.ErrCodeUnauthorized, i18n.T(c, i18n.ErrKeyAPIKeyRequired)).
					WithRequestID(GetRequestID(c)))
			return
		}
		if !v.Verify(key) {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewError(dto.ErrCodeUnauthorized, i18n.T(c, i18n.ErrKeyInvalidAPIKey)).
					WithRequestID(GetRequestID(c)))
			return
		}

		c.Set(SubjectKey, "api-key")
		c.Set(RoleKey, service.RoleAdmin)
		c.Next()
	}
}
