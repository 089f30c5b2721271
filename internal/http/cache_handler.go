package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/cache"
	"github.com/guttosm/hackathon-service/internal/domain/dto"
	"github.com/guttosm/hackathon-service/internal/domain/model"
	"github.com/guttosm/hackathon-service/internal/i18n"
	"github.com/guttosm/hackathon-service/internal/middleware"
	"github.com/guttosm/hackathon-service/internal/service"
)

const defaultAuditLimit = 50

// CacheHandler exposes the page cache and the audit trail to operators.
type CacheHandler struct {
	catalog service.CatalogService
	audit   service.AuditService
}

// NewCacheHandler creates a new CacheHandler. audit may be nil.
func NewCacheHandler(catalog service.CatalogService, audit service.AuditService) *CacheHandler {
	return &CacheHandler{
		catalog: catalog,
		audit:   audit,
	}
}

// manager returns the request's cache Manager or answers 500.
func manager(c *gin.Context) (*cache.Manager, bool) {
	m, err := cache.FromContext(c.Request.Context())
	if err != nil {
		NewResponseBuilder(c).ServiceError(err)
		return nil, false
	}
	return m, true
}

// Stats handles GET /api/cache/stats.
//
// @Summary      Cache statistics
// @Description  Returns the number of entries, estimated memory use and cached keys.
// @Tags         Cache
// @Produce      json
// @Success      200 {object} dto.SuccessResponse "Cache statistics"
// @Failure      401 {object} dto.ErrorResponse "Missing or invalid API key"
// @Security     ApiKeyAuth
// @Router       /api/cache/stats [get]
func (h *CacheHandler) Stats(c *gin.Context) {
	m, ok := manager(c)
	if !ok {
		return
	}
	NewResponseBuilder(c).SuccessOK(m.Stats())
}

// Invalidate handles POST /api/cache/invalidate.
//
// @Summary      Invalidate cache entries
// @Description  Drops one entry by exact key or every entry whose key matches a regular expression. Subscribed readers refetch.
// @Tags         Cache
// @Accept       json
// @Produce      json
// @Param        request body dto.InvalidateCacheRequest true "Key or pattern"
// @Success      200 {object} dto.SuccessResponse{data=dto.InvalidateResponse} "Entries removed"
// @Failure      400 {object} dto.ErrorResponse "Missing selector or invalid pattern"
// @Failure      401 {object} dto.ErrorResponse "Missing or invalid API key"
// @Security     ApiKeyAuth
// @Router       /api/cache/invalidate [post]
func (h *CacheHandler) Invalidate(c *gin.Context) {
	builder := NewResponseBuilder(c)

	req, err := BindJSON[dto.InvalidateCacheRequest](c)
	if err != nil {
		builder.ValidationError(err)
		return
	}
	m, ok := manager(c)
	if !ok {
		return
	}

	var removed int
	target := req.Key
	if req.Key != "" {
		if m.Has(req.Key) {
			removed = 1
		}
		m.Invalidate(req.Key)
	} else {
		target = req.Pattern
		removed, err = m.InvalidatePattern(req.Pattern)
		if err != nil {
			builder.Error(http.StatusBadRequest, i18n.ErrKeyInvalidPattern, err)
			return
		}
	}

	middleware.AuditLog(h.audit, c, model.ActionCacheInvalidated, target, map[string]any{"removed": removed})
	builder.SuccessOK(dto.InvalidateResponse{Removed: removed})
}

// Refresh handles POST /api/cache/refresh.
//
// @Summary      Refresh a cached page
// @Description  Refetches the value behind a route and its params in the foreground, replacing the cached one even when fresh.
// @Tags         Cache
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshCacheRequest true "Route and params"
// @Success      200 {object} dto.SuccessResponse "Refreshed key"
// @Failure      400 {object} dto.ErrorResponse "Unknown route or invalid params"
// @Failure      401 {object} dto.ErrorResponse "Missing or invalid API key"
// @Failure      404 {object} dto.ErrorResponse "Hackathon not found"
// @Failure      503 {object} dto.ErrorResponse "Store unavailable"
// @Security     ApiKeyAuth
// @Router       /api/cache/refresh [post]
func (h *CacheHandler) Refresh(c *gin.Context) {
	builder := NewResponseBuilder(c)

	req, err := BindJSON[dto.RefreshCacheRequest](c)
	if err != nil {
		builder.ValidationError(err)
		return
	}

	key, err := h.catalog.Refresh(c.Request.Context(), req.Route, req.Params)
	if err != nil {
		builder.ServiceError(err)
		return
	}

	middleware.AuditLog(h.audit, c, model.ActionCacheRefreshed, key, nil)
	builder.SuccessOK(gin.H{"key": key})
}

// Clear handles DELETE /api/cache.
//
// @Summary      Clear the cache
// @Description  Drops every cache entry. Subscribed readers refetch.
// @Tags         Cache
// @Produce      json
// @Success      200 {object} dto.SuccessResponse "Cache cleared"
// @Failure      401 {object} dto.ErrorResponse "Missing or invalid API key"
// @Security     ApiKeyAuth
// @Router       /api/cache [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	m, ok := manager(c)
	if !ok {
		return
	}
	removed := m.Stats().Size
	m.Clear()

	middleware.AuditLog(h.audit, c, model.ActionCacheCleared, "", map[string]any{"removed": removed})
	NewResponseBuilder(c).SuccessOK(gin.H{
		"message": i18n.T(c, i18n.SuccessKeyCacheCleared),
		"removed": removed,
	})
}

// RecentAudit handles GET /api/audit.
//
// @Summary      Recent audit events
// @Description  Returns the newest audit events first.
// @Tags         Audit
// @Produce      json
// @Param        limit query int false "Maximum events" minimum(1) maximum(500) default(50)
// @Success      200 {object} dto.SuccessResponse "Audit events"
// @Failure      401 {object} dto.ErrorResponse "Missing or invalid API key"
// @Security     ApiKeyAuth
// @Router       /api/audit [get]
func (h *CacheHandler) RecentAudit(c *gin.Context) {
	builder := NewResponseBuilder(c)
	if h.audit == nil {
		builder.SuccessOK([]model.AuditEvent{})
		return
	}

	limit := defaultAuditLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			builder.Error(http.StatusBadRequest, i18n.ErrKeyInvalidRequest, err)
			return
		}
		limit = n
	}

	events, err := h.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		builder.ServiceError(err)
		return
	}
	builder.SuccessOK(gin.H{"events": events, "stats": h.audit.Stats()})
}
