package http

import (
	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/middleware"
	"github.com/guttosm/hackathon-service/internal/service"
)

// PublicRouteGroup defines routes registered when authentication is off.
type PublicRouteGroup interface {
	RegisterPublicRoutes(rg *gin.RouterGroup)
}

// ProtectedRouteGroup defines routes registered when authentication is on.
type ProtectedRouteGroup interface {
	RegisterProtectedRoutes(rg *gin.RouterGroup, cfg *RouterConfig)
}

var (
	_ PublicRouteGroup    = (*CatalogRoutes)(nil)
	_ ProtectedRouteGroup = (*CatalogRoutes)(nil)
	_ PublicRouteGroup    = (*CacheRoutes)(nil)
	_ ProtectedRouteGroup = (*CacheRoutes)(nil)
	_ ProtectedRouteGroup = (*TokenRoutes)(nil)
)

// CatalogRoutes registers hackathon and team routes.
type CatalogRoutes struct {
	handler *Handler
}

// NewCatalogRoutes creates a new CatalogRoutes instance.
func NewCatalogRoutes(catalog service.CatalogService, audit service.AuditService) *CatalogRoutes {
	return &CatalogRoutes{handler: NewHandler(catalog, audit)}
}

func (r *CatalogRoutes) registerReads(rg *gin.RouterGroup) {
	rg.GET("/hackathons", r.handler.ListHackathons)
	rg.GET("/hackathons/:id", r.handler.GetHackathon)
	rg.GET("/hackathons/:id/teams", r.handler.ListTeams)
}

func (r *CatalogRoutes) registerWrites(rg *gin.RouterGroup) {
	rg.POST("/hackathons", r.handler.CreateHackathon)
	rg.PATCH("/hackathons/:id/status", r.handler.UpdateStatus)
	rg.POST("/hackathons/:id/teams", r.handler.CreateTeam)
}

// RegisterPublicRoutes registers reads and writes without authentication.
func (r *CatalogRoutes) RegisterPublicRoutes(rg *gin.RouterGroup) {
	r.registerReads(rg)
	r.registerWrites(rg)
}

// RegisterProtectedRoutes keeps reads public and puts writes behind an
// organizer or admin token.
func (r *CatalogRoutes) RegisterProtectedRoutes(rg *gin.RouterGroup, cfg *RouterConfig) {
	r.registerReads(rg)

	organizers := rg.Group("")
	organizers.Use(
		middleware.JWTAuth(cfg.Tokens),
		middleware.RequireRole(service.RoleOrganizer, service.RoleAdmin),
	)
	if cfg.RateLimiter != nil {
		organizers.Use(cfg.RateLimiter.SubjectRateLimit())
	}
	r.registerWrites(organizers)
}

// CacheRoutes registers the cache and audit administration routes.
type CacheRoutes struct {
	handler *CacheHandler
}

// NewCacheRoutes creates a new CacheRoutes instance.
func NewCacheRoutes(catalog service.CatalogService, audit service.AuditService) *CacheRoutes {
	return &CacheRoutes{handler: NewCacheHandler(catalog, audit)}
}

func (r *CacheRoutes) register(rg *gin.RouterGroup) {
	rg.GET("/cache/stats", r.handler.Stats)
	rg.POST("/cache/invalidate", r.handler.Invalidate)
	rg.POST("/cache/refresh", r.handler.Refresh)
	rg.DELETE("/cache", r.handler.Clear)
	rg.GET("/audit", r.handler.RecentAudit)
}

// RegisterPublicRoutes registers the admin routes without authentication.
func (r *CacheRoutes) RegisterPublicRoutes(rg *gin.RouterGroup) {
	r.register(rg)
}

// RegisterProtectedRoutes puts the admin routes behind an API key.
func (r *CacheRoutes) RegisterProtectedRoutes(rg *gin.RouterGroup, cfg *RouterConfig) {
	admin := rg.Group("")
	admin.Use(middleware.APIKeyAuth(cfg.APIKeys), middleware.RequireRole(service.RoleAdmin))
	r.register(admin)
}

// TokenRoutes registers the token issuing route. It only exists when
// authentication is on.
type TokenRoutes struct {
	handler *TokenHandler
}

// NewTokenRoutes creates a new TokenRoutes instance.
func NewTokenRoutes(tokens service.TokenService) *TokenRoutes {
	return &TokenRoutes{handler: NewTokenHandler(tokens)}
}

// RegisterProtectedRoutes puts token issuing behind an API key.
func (r *TokenRoutes) RegisterProtectedRoutes(rg *gin.RouterGroup, cfg *RouterConfig) {
	admin := rg.Group("")
	admin.Use(middleware.APIKeyAuth(cfg.APIKeys), middleware.RequireRole(service.RoleAdmin))
	admin.POST("/tokens", r.handler.Issue)
}
