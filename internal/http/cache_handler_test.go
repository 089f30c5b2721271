//go:build !integration

package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/guttosm/hackathon-service/internal/cache"
	"github.com/guttosm/hackathon-service/internal/domain/dto"
	"github.com/guttosm/hackathon-service/internal/domain/model"
	"github.com/guttosm/hackathon-service/internal/middleware"
	"github.com/guttosm/hackathon-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheHandler_Stats(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, "alpha", model.StatusOpen, 0)
	env.do(http.MethodGet, "/api/hackathons?status=open", "", nil)

	w := env.do(http.MethodGet, "/api/cache/stats", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeData[cache.Stats](t, w)
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, cache.DefaultMaxSize, stats.MaxSize)
	assert.Positive(t, stats.EstimatedMemoryUsage)
	assert.Equal(t, []string{"/hackathons?limit=20&page=1&status=open"}, stats.Entries)
}

func TestCacheHandler_Invalidate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantRemoved int
		wantLeft    int
	}{
		{name: "exact key", body: `{"key":"/hackathons?limit=20&page=1&status=open"}`, wantStatus: http.StatusOK, wantRemoved: 1, wantLeft: 1},
		{name: "missing key", body: `{"key":"/nope"}`, wantStatus: http.StatusOK, wantRemoved: 0, wantLeft: 2},
		{name: "pattern", body: `{"pattern":"^/hackathons"}`, wantStatus: http.StatusOK, wantRemoved: 2, wantLeft: 0},
		{name: "pattern with no match", body: `{"pattern":"teams$"}`, wantStatus: http.StatusOK, wantRemoved: 0, wantLeft: 2},
		{name: "invalid pattern", body: `{"pattern":"(["}`, wantStatus: http.StatusBadRequest, wantLeft: 2},
		{name: "no selector", body: `{}`, wantStatus: http.StatusBadRequest, wantLeft: 2},
		{name: "both selectors", body: `{"key":"a","pattern":"b"}`, wantStatus: http.StatusBadRequest, wantLeft: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.seed(t, "alpha", model.StatusOpen, 0)
			env.do(http.MethodGet, "/api/hackathons?status=open", "", nil)
			env.do(http.MethodGet, "/api/hackathons", "", nil)

			w := env.do(http.MethodPost, "/api/cache/invalidate", tt.body, nil)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantRemoved, decodeData[dto.InvalidateResponse](t, w).Removed)
			}
			assert.Equal(t, tt.wantLeft, env.provider.Manager().Stats().Size)
		})
	}
}

func TestCacheHandler_Refresh(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.seed(t, "alpha", model.StatusOpen, 0)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKey    string
	}{
		{name: "listing", body: `{"route":"/hackathons","params":{"status":"open"}}`, wantStatus: http.StatusOK, wantKey: "/hackathons?limit=20&page=1&status=open"},
		{name: "item", body: `{"route":"/hackathons/` + h.ID.Hex() + `"}`, wantStatus: http.StatusOK, wantKey: service.HackathonRoute(h.ID)},
		{name: "teams", body: `{"route":"/hackathons/` + h.ID.Hex() + `/teams","params":{"looking":true}}`, wantStatus: http.StatusOK, wantKey: service.TeamsRoute(h.ID) + "?looking=true"},
		{name: "unknown route", body: `{"route":"/sponsors"}`, wantStatus: http.StatusBadRequest},
		{name: "invalid status param", body: `{"route":"/hackathons","params":{"status":"archived"}}`, wantStatus: http.StatusBadRequest},
		{name: "missing hackathon", body: `{"route":"/hackathons/507f1f77bcf86cd799439011"}`, wantStatus: http.StatusNotFound},
		{name: "missing route", body: `{}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/cache/refresh", tt.body, nil)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantKey != "" {
				got := decodeData[map[string]string](t, w)
				assert.Equal(t, tt.wantKey, got["key"])
				assert.True(t, env.provider.Manager().Has(tt.wantKey))
			}
		})
	}
}

func TestCacheHandler_Refresh_ReplacesFreshEntry(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.seed(t, "alpha", model.StatusUpcoming, 0)
	path := "/api/hackathons/" + h.ID.Hex()

	env.do(http.MethodGet, path, "", nil)
	_, err := env.store.Hackathons().UpdateStatus(context.Background(), h.ID, model.StatusOpen)
	require.NoError(t, err)

	w := env.do(http.MethodGet, path, "", nil)
	require.Equal(t, model.StatusUpcoming, decodeData[model.Hackathon](t, w).Status)

	w = env.do(http.MethodPost, "/api/cache/refresh", `{"route":"/hackathons/`+h.ID.Hex()+`"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, path, "", nil)
	assert.Equal(t, "HIT", w.Header().Get(middleware.CacheStatusHeader))
	assert.Equal(t, model.StatusOpen, decodeData[model.Hackathon](t, w).Status)
}

func TestCacheHandler_Clear(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, "alpha", model.StatusOpen, 0)
	env.do(http.MethodGet, "/api/hackathons", "", nil)
	env.do(http.MethodGet, "/api/hackathons?status=open", "", nil)

	w := env.do(http.MethodDelete, "/api/cache", "", map[string]string{"Accept-Language": "pt-BR"})

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[map[string]any](t, w)
	assert.Equal(t, float64(2), got["removed"])
	assert.NotEmpty(t, got["message"])
	assert.Zero(t, env.provider.Manager().Stats().Size)
}

func TestCacheHandler_RecentAudit(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(http.MethodDelete, "/api/cache", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodPost, "/api/cache/invalidate", `{"pattern":"^/hackathons"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Eventually(t, func() bool {
		return env.audit.Stats().Written == 2
	}, time.Second, 5*time.Millisecond)

	w = env.do(http.MethodGet, "/api/audit?limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[struct {
		Events []model.AuditEvent `json:"events"`
		Stats  service.AuditStats `json:"stats"`
	}](t, w)
	assert.Len(t, got.Events, 1)
	assert.Equal(t, int64(2), got.Stats.Written)

	w = env.do(http.MethodGet, "/api/audit?limit=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
