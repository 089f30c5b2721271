package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/cache"
	"github.com/guttosm/hackathon-service/internal/metrics"
	"github.com/guttosm/hackathon-service/internal/middleware"
	"github.com/guttosm/hackathon-service/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterConfig holds router configuration options.
type RouterConfig struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
	SwaggerUser    string
	SwaggerPass    string
	// EnableAuth protects writes with JWTs and admin routes with API keys.
	// Tokens must be set when it is true.
	EnableAuth bool
	// RateLimiter is shared by the per-IP and per-subject limits. Nil disables them.
	RateLimiter *middleware.ShardedRateLimiter
	// Idempotency holds replayable write responses. Nil disables replay.
	Idempotency *middleware.IdempotencyStore
	APIKeys     *middleware.APIKeyVerifier
	Tokens      service.TokenService
	Provider    *cache.Provider
	Catalog     service.CatalogService
	Audit       service.AuditService
}

// DefaultRouterConfig returns the default router configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		RequestTimeout: middleware.DefaultRequestTimeout,
	}
}

// NewRouter creates and configures the Gin router for the hackathon service.
func NewRouter(healthHandler *HealthHandler, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	configureGlobalMiddleware(router, &cfg)
	registerInfrastructureRoutes(router, healthHandler, &cfg)

	api := router.Group("/api")
	api.Use(middleware.Idempotency(cfg.Idempotency))

	groups := []ProtectedRouteGroup{
		NewCatalogRoutes(cfg.Catalog, cfg.Audit),
		NewCacheRoutes(cfg.Catalog, cfg.Audit),
	}
	if cfg.Tokens != nil {
		groups = append(groups, NewTokenRoutes(cfg.Tokens))
	}
	for _, g := range groups {
		if cfg.EnableAuth {
			g.RegisterProtectedRoutes(api, &cfg)
		} else if pg, ok := g.(PublicRouteGroup); ok {
			pg.RegisterPublicRoutes(api)
		}
	}

	return router
}

// configureGlobalMiddleware sets up middleware applied to all routes.
func configureGlobalMiddleware(router *gin.Engine, cfg *RouterConfig) {
	router.Use(
		middleware.CORS(cfg.CORSOrigins),
		middleware.RequestID(),
		middleware.Recovery(),
		metrics.PrometheusMiddleware(),
		middleware.RequestLogger(),
		middleware.ErrorHandler(),
	)

	if cfg.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.Provider != nil {
		router.Use(middleware.CacheProvider(cfg.Provider))
	}
	if cfg.RateLimiter != nil {
		router.Use(cfg.RateLimiter.RateLimit())
	}

	// Outside idempotency so stored responses are uncompressed.
	router.Use(middleware.Compression())
}

// registerInfrastructureRoutes registers health, metrics, and documentation routes.
func registerInfrastructureRoutes(router *gin.Engine, healthHandler *HealthHandler, cfg *RouterConfig) {
	if healthHandler != nil {
		healthHandler.Register(router)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.SwaggerUser != "" && cfg.SwaggerPass != "" {
		authorized := router.Group("/swagger", gin.BasicAuth(gin.Accounts{
			cfg.SwaggerUser: cfg.SwaggerPass,
		}))
		authorized.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	} else {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
