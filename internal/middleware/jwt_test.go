//go:build !integration

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/config"
	"github.com/guttosm/hackathon-service/internal/domain/dto"
	"github.com/guttosm/hackathon-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens(t *testing.T) service.TokenService {
	t.Helper()
	tokens, err := service.NewTokenService(config.AuthConfig{JWTSecretKey: "test-secret", TokenTTL: time.Hour})
	require.NoError(t, err)
	return tokens
}

func TestJWTAuth(t *testing.T) {
	tokens := newTokens(t)
	valid, _, err := tokens.Issue("org@example.com", service.RoleOrganizer, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantSubject string
	}{
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusOK, wantSubject: "org@example.com"},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var subject string
			router := gin.New()
			router.GET("/", JWTAuth(tokens), func(c *gin.Context) {
				subject = c.GetString(SubjectKey)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantSubject, subject)
			if tt.wantStatus == http.StatusUnauthorized {
				var resp dto.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{name: "allowed role", role: service.RoleOrganizer, wantStatus: http.StatusOK},
		{name: "other allowed role", role: service.RoleAdmin, wantStatus: http.StatusOK},
		{name: "unknown role", role: "guest", wantStatus: http.StatusForbidden},
		{name: "not authenticated", role: "", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) {
				if tt.role != "" {
					c.Set(RoleKey, tt.role)
				}
				c.Next()
			}, RequireRole(service.RoleOrganizer, service.RoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
