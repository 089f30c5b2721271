//go:build !integration

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashKey(t *testing.T, key string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAPIKeyAuth(t *testing.T) {
	verifier := NewAPIKeyVerifier([]string{hashKey(t, "first-key"), "", hashKey(t, "second-key")})

	tests := []struct {
		name       string
		verifier   *APIKeyVerifier
		key        string
		wantStatus int
	}{
		{name: "first key", verifier: verifier, key: "first-key", wantStatus: http.StatusOK},
		{name: "second key", verifier: verifier, key: "second-key", wantStatus: http.StatusOK},
		{name: "missing key", verifier: verifier, key: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", verifier: verifier, key: "nope", wantStatus: http.StatusUnauthorized},
		{name: "disabled without hashes", verifier: NewAPIKeyVerifier(nil), key: "", wantStatus: http.StatusOK},
		{name: "nil verifier", verifier: nil, key: "", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var role string
			router := gin.New()
			router.GET("/", APIKeyAuth(tt.verifier), func(c *gin.Context) {
				role = c.GetString(RoleKey)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK && tt.key != "" {
				assert.Equal(t, service.RoleAdmin, role)
			}
		})
	}
}

func TestAPIKeyVerifier_RemembersVerifiedKeys(t *testing.T) {
	v := NewAPIKeyVerifier([]string{hashKey(t, "k")})

	assert.True(t, v.Verify("k"))
	v.hashes = nil
	assert.True(t, v.Verify("k"), "a verified key skips bcrypt")
	assert.False(t, v.Verify("other"))
	assert.False(t, v.Verify(""))
}
