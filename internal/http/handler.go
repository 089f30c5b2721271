package http

import (
	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/domain/dto"
	"github.com/guttosm/hackathon-service/internal/domain/model"
	"github.com/guttosm/hackathon-service/internal/middleware"
	"github.com/guttosm/hackathon-service/internal/repository"
	"github.com/guttosm/hackathon-service/internal/service"
)

// anonymousOrganizer owns hackathons created while authentication is off.
const anonymousOrganizer = "anonymous"

// Handler provides HTTP handlers for hackathon and team routes.
type Handler struct {
	catalog service.CatalogService
	audit   service.AuditService
}

// NewHandler creates a new Handler. audit may be nil.
func NewHandler(catalog service.CatalogService, audit service.AuditService) *Handler {
	return &Handler{
		catalog: catalog,
		audit:   audit,
	}
}

// ListHackathons handles GET /api/hackathons.
//
// @Summary      List hackathons
// @Description  Returns one page of hackathons, served from the page cache. The X-Cache header is HIT, STALE (a background refetch is running) or MISS.
// @Tags         Hackathons
// @Produce      json
// @Param        status query string false "Lifecycle status" Enums(upcoming, open, ongoing, completed)
// @Param        tag   query string false "Tag filter"
// @Param        page  query int    false "Page number" minimum(1) default(1)
// @Param        limit query int    false "Page size" minimum(1) maximum(100) default(20)
// @Success      200 {object} dto.SuccessResponse "Page of hackathons"
// @Header       200 {string} X-Cache "HIT, STALE or MISS"
// @Failure      400 {object} dto.ErrorResponse "Invalid query"
// @Failure      503 {object} dto.ErrorResponse "Store unavailable"
// @Failure      504 {object} dto.ErrorResponse "Store timed out"
// @Router       /api/hackathons [get]
func (h *Handler) ListHackathons(c *gin.Context) {
	builder := NewResponseBuilder(c)

	query, err := BindQuery[dto.ListHackathonsQuery](c)
	if err != nil {
		builder.ValidationError(err)
		return
	}

	page, status, err := h.catalog.ListHackathons(c.Request.Context(), query.Filter())
	if err != nil {
		builder.ServiceError(err)
		return
	}
	builder.Cached(status, page)
}

// GetHackathon handles GET /api/hackathons/:id.
//
// @Summary      Get hackathon
// @Description  Returns one hackathon, served from the page cache.
// @Tags         Hackathons
// @Produce      json
// @Param        id path string true "Hackathon ID"
// @Success      200 {object} dto.SuccessResponse "Hackathon"
// @Header       200 {string} X-Cache "HIT, STALE or MISS"
// @Failure      400 {object} dto.ErrorResponse "Invalid ID"
// @Failure      404 {object} dto.ErrorResponse "Hackathon not found"
// @Failure      503 {object} dto.ErrorResponse "Store unavailable"
// @Router       /api/hackathons/{id} [get]
func (h *Handler) GetHackathon(c *gin.Context) {
	builder := NewResponseBuilder(c)

	id, err := repository.ParseID(c.Param("id"))
	if err != nil {
		builder.ServiceError(err)
		return
	}

	hackathon, status, err := h.catalog.GetHackathon(c.Request.Context(), id)
	if err != nil {
		builder.ServiceError(err)
		return
	}
	builder.Cached(status, hackathon)
}

// ListTeams handles GET /api/hackathons/:id/teams.
//
// @Summary      List teams
// @Description  Returns the teams registered for a hackathon, served from the page cache.
// @Tags         Teams
// @Produce      json
// @Param        id      path  string true  "Hackathon ID"
// @Param        looking query bool   false "Only teams looking for members"
// @Success      200 {object} dto.SuccessResponse "Teams"
// @Header       200 {string} X-Cache "HIT, STALE or MISS"
// @Failure      400 {object} dto.ErrorResponse "Invalid ID or query"
// @Failure      503 {object} dto.ErrorResponse "Store unavailable"
// @Router       /api/hackathons/{id}/teams [get]
func (h *Handler) ListTeams(c *gin.Context) {
	builder := NewResponseBuilder(c)

	id, err := repository.ParseID(c.Param("id"))
	if err != nil {
		builder.ServiceError(err)
		return
	}
	query, err := BindQuery[dto.ListTeamsQuery](c)
	if err != nil {
		builder.ValidationError(err)
		return
	}

	teams, status, err := h.catalog.ListTeams(c.Request.Context(), id, query.Looking)
	if err != nil {
		builder.ServiceError(err)
		return
	}
	builder.Cached(status, teams)
}

// CreateHackathon handles POST /api/hackathons.
//
// @Summary      Create hackathon
// @Description  Creates a hackathon in the upcoming status and invalidates cached listings. Supports idempotency via the Idempotency-Key header.
// @Tags         Hackathons
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Idempotency key for request deduplication"
// @Param        request body dto.CreateHackathonRequest true "Hackathon"
// @Success      201 {object} dto.SuccessResponse "Created hackathon"
// @Failure      400 {object} dto.ErrorResponse "Invalid input"
// @Failure      401 {object} dto.ErrorResponse "Missing or invalid token"
// @Failure      403 {object} dto.ErrorResponse "Role not allowed"
// @Failure      409 {object} dto.ErrorResponse "Slug already taken"
// @Failure      503 {object} dto.ErrorResponse "Store unavailable"
// @Security     BearerAuth
// @Router       /api/hackathons [post]
func (h *Handler) CreateHackathon(c *gin.Context) {
	builder := NewResponseBuilder(c)

	req, err := BindJSON[dto.CreateHackathonRequest](c)
	if err != nil {
		builder.ValidationError(err)
		return
	}

	organizer := c.GetString(middleware.SubjectKey)
	if organizer == "" {
		organizer = anonymousOrganizer
	}

	hackathon, err := h.catalog.CreateHackathon(c.Request.Context(), *req, organizer)
	if err != nil {
		middleware.AuditLogError(h.audit, c, model.ActionHackathonCreated, req.Slug, err, nil)
		builder.ServiceError(err)
		return
	}

	middleware.AuditLog(h.audit, c, model.ActionHackathonCreated, hackathon.ID.Hex(), map[string]any{
		"slug": hackathon.Slug,
	})
	c.Header("Location", "/api"+service.HackathonRoute(hackathon.ID))
	builder.SuccessCreated(hackathon)
}

// UpdateStatus handles PATCH /api/hackathons/:id/status.
//
// @Summary      Change hackathon status
// @Description  Moves a hackathon forward in its lifecycle and invalidates its cached item and listings.
// @Tags         Hackathons
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "Hackathon ID"
// @Param        request body dto.UpdateStatusRequest true "New status"
// @Success      200 {object} dto.SuccessResponse "Updated hackathon"
// @Failure      400 {object} dto.ErrorResponse "Invalid input"
// @Failure      401 {object} dto.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} dto.ErrorResponse "Hackathon not found"
// @Failure      409 {object} dto.ErrorResponse "Transition not allowed"
// @Security     BearerAuth
// @Router       /api/hackathons/{id}/status [patch]
func (h *Handler) UpdateStatus(c *gin.Context) {
	builder := NewResponseBuilder(c)

	id, err := repository.ParseID(c.Param("id"))
	if err != nil {
		builder.ServiceError(err)
		return
	}
	req, err := BindJSON[dto.UpdateStatusRequest](c)
	if err != nil {
		builder.ValidationError(err)
		return
	}

	hackathon, err := h.catalog.UpdateStatus(c.Request.Context(), id, req.Status)
	fields := map[string]any{"status": string(req.Status)}
	if err != nil {
		middleware.AuditLogError(h.audit, c, model.ActionHackathonStatus, id.Hex(), err, fields)
		builder.ServiceError(err)
		return
	}

	middleware.AuditLog(h.audit, c, model.ActionHackathonStatus, id.Hex(), fields)
	builder.SuccessOK(hackathon)
}

// CreateTeam handles POST /api/hackathons/:id/teams.
//
// @Summary      Register team
// @Description  Registers a team for a hackathon that is upcoming or open and invalidates its cached team listings.
// @Tags         Teams
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Idempotency key for request deduplication"
// @Param        id      path string                true "Hackathon ID"
// @Param        request body dto.CreateTeamRequest true "Team"
// @Success      201 {object} dto.SuccessResponse "Registered team"
// @Failure      400 {object} dto.ErrorResponse "Invalid input"
// @Failure      401 {object} dto.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} dto.ErrorResponse "Hackathon not found"
// @Failure      409 {object} dto.ErrorResponse "Registration closed or name taken"
// @Security     BearerAuth
// @Router       /api/hackathons/{id}/teams [post]
func (h *Handler) CreateTeam(c *gin.Context) {
	builder := NewResponseBuilder(c)

	id, err := repository.ParseID(c.Param("id"))
	if err != nil {
		builder.ServiceError(err)
		return
	}
	req, err := BindJSON[dto.CreateTeamRequest](c)
	if err != nil {
		builder.ValidationError(err)
		return
	}

	team, err := h.catalog.CreateTeam(c.Request.Context(), id, *req)
	fields := map[string]any{"team": req.Name, "members": len(req.Members)}
	if err != nil {
		middleware.AuditLogError(h.audit, c, model.ActionTeamCreated, id.Hex(), err, fields)
		builder.ServiceError(err)
		return
	}

	middleware.AuditLog(h.audit, c, model.ActionTeamCreated, id.Hex(), fields)
	builder.SuccessCreated(team)
}
