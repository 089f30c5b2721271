package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/cache"
	"github.com/guttosm/hackathon-service/internal/domain/model"
	"github.com/guttosm/hackathon-service/internal/middleware"
	"github.com/guttosm/hackathon-service/internal/repository"
	"github.com/guttosm/hackathon-service/internal/service"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv is a full router over an in-memory store.
type testEnv struct {
	router   *gin.Engine
	store    *repository.MemoryStore
	provider *cache.Provider
	audit    *service.AuditServiceImpl
}

func newTestEnv(t *testing.T, configure func(*RouterConfig)) *testEnv {
	t.Helper()

	p := cache.NewProvider(cache.DefaultConfig(), cache.WithoutGC())
	t.Cleanup(p.Close)
	store := repository.NewMemoryStore()
	audit := service.NewAuditService(store.Audit(), service.AuditConfig{NumWorkers: 1})
	t.Cleanup(audit.Stop)

	idem := middleware.NewIdempotencyStore(time.Minute, 0)
	t.Cleanup(idem.Close)

	cfg := DefaultRouterConfig()
	cfg.Provider = p
	cfg.Idempotency = idem
	cfg.Catalog = service.NewCatalogService(store.Hackathons(), store.Teams(), service.CatalogConfig{})
	cfg.Audit = audit
	if configure != nil {
		configure(&cfg)
	}

	health := NewHealthHandler()
	health.SetCacheProvider(p)

	return &testEnv{
		router:   NewRouter(health, cfg),
		store:    store,
		provider: p,
		audit:    audit,
	}
}

func (e *testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seed(t *testing.T, slug string, status model.Status, maxTeam int) *model.Hackathon {
	t.Helper()
	h := &model.Hackathon{
		Slug:        slug,
		Title:       strings.ToUpper(slug),
		Status:      status,
		StartsAt:    time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC),
		EndsAt:      time.Date(2025, 4, 2, 18, 0, 0, 0, time.UTC),
		MaxTeamSize: maxTeam,
	}
	require.NoError(t, e.store.Hackathons().Create(context.Background(), h))
	return h
}

// decodeData unwraps the data field of a SuccessResponse.
func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	return envelope.Data
}
