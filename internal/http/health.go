package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/cache"
	"github.com/guttosm/hackathon-service/internal/circuitbreaker"
	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 2 * time.Second

// HealthChecker is a dependency that can report whether it is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checkers        map[string]HealthChecker
	circuitBreakers map[string]*circuitbreaker.CircuitBreaker
	provider        *cache.Provider
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		checkers:        make(map[string]HealthChecker),
		circuitBreakers: make(map[string]*circuitbreaker.CircuitBreaker),
	}
}

// RegisterChecker registers a dependency for readiness checks.
func (h *HealthHandler) RegisterChecker(name string, checker HealthChecker) {
	h.checkers[name] = checker
}

// RegisterCircuitBreaker registers a circuit breaker for health monitoring.
func (h *HealthHandler) RegisterCircuitBreaker(name string, cb *circuitbreaker.CircuitBreaker) {
	h.circuitBreakers[name] = cb
}

// SetCacheProvider reports the provider's cache size in readiness output.
func (h *HealthHandler) SetCacheProvider(p *cache.Provider) {
	h.provider = p
}

// Register registers health endpoints on the router.
func (h *HealthHandler) Register(router *gin.Engine) {
	router.GET("/healthz", h.Liveness)
	router.GET("/readyz", h.Readiness)
}

// Liveness handles the liveness probe endpoint.
// @Summary     Liveness probe
// @Description Returns OK if the process is running.
// @Tags        Health
// @Produce     json
// @Success     200 {object} map[string]string "Service is alive"
// @Router      /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles the readiness probe endpoint.
// @Summary     Readiness probe
// @Description Returns OK if every registered dependency is healthy and no circuit breaker is open.
// @Tags        Health
// @Produce     json
// @Success     200 {object} map[string]interface{} "Service is ready"
// @Failure     503 {object} map[string]interface{} "Service is not ready"
// @Router      /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	results := h.runCheckers(ctx)
	ready := true
	checks := make(map[string]any, len(results)+len(h.circuitBreakers)+1)

	for name, err := range results {
		if err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	for name, cb := range h.circuitBreakers {
		stats := cb.GetStats()
		checks[name+"_circuit"] = stats.State
		ready = ready && stats.IsHealthy
	}

	if h.provider != nil {
		stats := h.provider.Manager().Stats()
		checks["cache"] = cacheCheck{Size: stats.Size, MaxSize: stats.MaxSize}
	}

	if len(checks) == 0 {
		checks["service"] = "ok"
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !ready {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

type readinessResponse struct {
	Status string         `json:"status"`
	Checks map[string]any `json:"checks"`
}

type cacheCheck struct {
	Size    int `json:"size"`
	MaxSize int `json:"max_size"`
}

// runCheckers pings every dependency concurrently under ctx.
func (h *HealthHandler) runCheckers(ctx context.Context) map[string]error {
	var (
		mu      sync.Mutex
		g       errgroup.Group
		results = make(map[string]error, len(h.checkers))
	)
	for name, checker := range h.checkers {
		g.Go(func() error {
			err := checker.HealthCheck(ctx)
			mu.Lock()
			results[name] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}
