// Package app provides router configuration.
package app

import (
	"github.com/guttosm/hackathon-service/config"
	"github.com/guttosm/hackathon-service/internal/cache"
	"github.com/guttosm/hackathon-service/internal/http"
	"github.com/guttosm/hackathon-service/internal/middleware"
)

// RouterComponents holds router-related components.
type RouterComponents struct {
	HealthHandler *http.HealthHandler
	Config        http.RouterConfig
	RateLimiter   *middleware.ShardedRateLimiter
	Idempotency   *middleware.IdempotencyStore
}

// InitializeRouter builds the health handler and router configuration.
func InitializeRouter(
	cfg config.Config,
	provider *cache.Provider,
	store *StoreComponents,
	services *ServiceComponents,
) *RouterComponents {
	healthHandler := http.NewHealthHandler()
	healthHandler.SetCacheProvider(provider)
	if store.DB != nil {
		healthHandler.RegisterChecker("mongodb", store.DB)
	}
	for name, cb := range store.CircuitBreakers {
		healthHandler.RegisterCircuitBreaker(name, cb)
	}

	var limiter *middleware.ShardedRateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)
	}

	var replays *middleware.IdempotencyStore
	if cfg.Server.IdempotencyTTL > 0 {
		replays = middleware.NewIdempotencyStore(cfg.Server.IdempotencyTTL, cfg.Server.IdempotencyMaxSize)
	}

	routerCfg := http.DefaultRouterConfig()
	if cfg.Server.RequestTimeout > 0 {
		routerCfg.RequestTimeout = cfg.Server.RequestTimeout
	}
	routerCfg.CORSOrigins = cfg.Server.CORSOrigins
	routerCfg.SwaggerUser = cfg.Server.SwaggerUser
	routerCfg.SwaggerPass = cfg.Server.SwaggerPass
	routerCfg.EnableAuth = cfg.Auth.Enabled
	routerCfg.RateLimiter = limiter
	routerCfg.Idempotency = replays
	routerCfg.APIKeys = services.APIKeys
	routerCfg.Tokens = services.Tokens
	routerCfg.Provider = provider
	routerCfg.Catalog = services.Catalog
	routerCfg.Audit = services.Audit

	return &RouterComponents{
		HealthHandler: healthHandler,
		Config:        routerCfg,
		RateLimiter:   limiter,
		Idempotency:   replays,
	}
}
