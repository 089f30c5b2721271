//go:build integration

package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/guttosm/hackathon-service/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeApp_Integration(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		Server: config.ServerConfig{
			Port:           "0",
			RateLimit:      100,
			RateWindow:     time.Minute,
			RequestTimeout: 5 * time.Second,
		},
		Log:   config.LogConfig{Level: "error"},
		Cache: config.CacheConfig{WarmUp: []string{"open"}},
		Database: config.DatabaseConfig{
			URI:                            getSharedContainerURI(),
			DatabaseName:                   sanitizeDBNameForApp(t.Name()),
			AuditTTL:                       time.Hour,
			Enabled:                        true,
			CircuitBreakerFailureThreshold: 5,
			CircuitBreakerSuccessThreshold: 2,
			CircuitBreakerTimeout:          30 * time.Second,
		},
	}

	a, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, a.Store.DB)
	db := a.Store.DB.Database
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = a.Close(ctx)
	})

	assert.Len(t, a.Provider.Manager().Stats().Entries, 2, "warm-up fills the unfiltered and open listings")

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ready struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "ok", ready.Checks["mongodb"])
	assert.Equal(t, "closed", ready.Checks["mongodb_hackathons_circuit"])

	body := `{"slug":"int-hack","title":"Int Hack","starts_at":"2025-06-01T09:00:00Z","ends_at":"2025-06-02T18:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/hackathons", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Len(t, a.Provider.Manager().Stats().Entries, 0, "creating a hackathon drops cached listings")

	require.Eventually(t, func() bool {
		count, err := db.Collection("audit_events").CountDocuments(ctx, map[string]any{})
		return err == nil && count == 1
	}, 5*time.Second, 20*time.Millisecond)
}
