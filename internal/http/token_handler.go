package http

import (
	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/domain/dto"
	"github.com/guttosm/hackathon-service/internal/service"
)

// TokenHandler issues organizer tokens to holders of an admin API key.
type TokenHandler struct {
	tokens service.TokenService
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(tokens service.TokenService) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// Issue handles POST /api/tokens.
//
// @Summary      Issue organizer token
// @Description  Signs a bearer token for an organizer. A zero ttl uses the configured default.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body dto.IssueTokenRequest true "Token subject"
// @Success      201 {object} dto.SuccessResponse{data=dto.TokenResponse} "Issued token"
// @Failure      400 {object} dto.ErrorResponse "Invalid input"
// @Failure      401 {object} dto.ErrorResponse "Missing or invalid API key"
// @Security     ApiKeyAuth
// @Router       /api/tokens [post]
func (h *TokenHandler) Issue(c *gin.Context) {
	builder := NewResponseBuilder(c)

	req, err := BindJSON[dto.IssueTokenRequest](c)
	if err != nil {
		builder.ValidationError(err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(req.Subject, service.RoleOrganizer, req.TTL)
	if err != nil {
		builder.ServiceError(err)
		return
	}
	builder.SuccessCreated(dto.TokenResponse{Token: token, ExpiresAt: expiresAt})
}
