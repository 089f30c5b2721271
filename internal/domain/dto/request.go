// Package dto defines Data Transfer Objects for HTTP request and response handling.
//
// DTOs decouple the HTTP layer from the domain model and carry binding
// rules for gin's validator.
package dto

import (
	"regexp"
	"time"

	"github.com/guttosm/hackathon-service/internal/domain/model"
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message for ValidationError.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// CreateHackathonRequest is the body of POST /api/hackathons.
//
// @Description Request to create a hackathon
type CreateHackathonRequest struct {
	Slug        string    `json:"slug" binding:"required,max=64" example:"spring-hack-2025"`
	Title       string    `json:"title" binding:"required,max=120" example:"Spring Hack 2025"`
	Description string    `json:"description" binding:"max=4000"`
	Location    string    `json:"location" example:"Lisbon"`
	StartsAt    time.Time `json:"starts_at" binding:"required" example:"2025-04-10T09:00:00Z"`
	EndsAt      time.Time `json:"ends_at" binding:"required" example:"2025-04-12T18:00:00Z"`
	MaxTeamSize int       `json:"max_team_size" binding:"gte=0,lte=20" example:"5"`
	Tags        []string  `json:"tags" example:"ai,web"`
} // @name CreateHackathonRequest

// Validate checks rules binding tags cannot express.
func (r *CreateHackathonRequest) Validate() error {
	if !slugPattern.MatchString(r.Slug) {
		return &ValidationError{Field: "slug", Message: "must be lowercase words separated by hyphens"}
	}
	if !r.EndsAt.After(r.StartsAt) {
		return &ValidationError{Field: "ends_at", Message: "must be after starts_at"}
	}
	return nil
}

// UpdateStatusRequest is the body of PATCH /api/hackathons/:id/status.
//
// @Description Request to move a hackathon to a later status
type UpdateStatusRequest struct {
	Status model.Status `json:"status" binding:"required" example:"open"`
} // @name UpdateStatusRequest

// Validate checks the requested status is known.
func (r *UpdateStatusRequest) Validate() error {
	if !r.Status.Valid() {
		return &ValidationError{Field: "status", Message: "must be one of upcoming, open, ongoing, completed"}
	}
	return nil
}

// CreateTeamRequest is the body of POST /api/hackathons/:id/teams.
//
// @Description Request to register a team
type CreateTeamRequest struct {
	Name              string   `json:"name" binding:"required,max=80" example:"Rocket"`
	Members           []string `json:"members" binding:"required,min=1" example:"ana,bo"`
	LookingForMembers bool     `json:"looking_for_members" example:"true"`
} // @name CreateTeamRequest

// InvalidateCacheRequest is the body of POST /api/cache/invalidate.
// Exactly one of Key and Pattern must be set.
//
// @Description Request to drop cache entries by exact key or regular expression
type InvalidateCacheRequest struct {
	Key     string `json:"key" example:"/hackathons?limit=20&page=1&status=open"`
	Pattern string `json:"pattern" example:"^/hackathons"`
} // @name InvalidateCacheRequest

// Validate checks that exactly one selector is present.
func (r *InvalidateCacheRequest) Validate() error {
	if (r.Key == "") == (r.Pattern == "") {
		return &ValidationError{Field: "key", Message: "exactly one of key or pattern is required"}
	}
	return nil
}

// RefreshCacheRequest is the body of POST /api/cache/refresh.
//
// @Description Request to refetch one cached page
type RefreshCacheRequest struct {
	Route  string         `json:"route" binding:"required" example:"/hackathons"`
	Params map[string]any `json:"params" swaggertype:"object"`
} // @name RefreshCacheRequest

// IssueTokenRequest is the body of POST /api/tokens.
//
// @Description Request to issue an organizer token
type IssueTokenRequest struct {
	Subject string        `json:"subject" binding:"required" example:"organizer@example.com"`
	TTL     time.Duration `json:"ttl" swaggertype:"integer" example:"3600000000000"`
} // @name IssueTokenRequest

// ListHackathonsQuery is the query string of GET /api/hackathons.
type ListHackathonsQuery struct {
	Status string `form:"status" example:"open"`
	Tag    string `form:"tag" example:"ai"`
	Page   int    `form:"page" binding:"omitempty,gte=1" example:"1"`
	Limit  int    `form:"limit" binding:"omitempty,gte=1,lte=100" example:"20"`
}

// Validate checks the status filter, when present, is known.
func (q *ListHackathonsQuery) Validate() error {
	if q.Status != "" && !model.Status(q.Status).Valid() {
		return &ValidationError{Field: "status", Message: "must be one of upcoming, open, ongoing, completed"}
	}
	return nil
}

// Filter converts the query into a normalized listing filter.
func (q *ListHackathonsQuery) Filter() model.HackathonFilter {
	return model.HackathonFilter{
		Status: model.Status(q.Status),
		Tag:    q.Tag,
		Page:   q.Page,
		Limit:  q.Limit,
	}.Normalize()
}

// ListTeamsQuery is the query string of GET /api/hackathons/:id/teams.
type ListTeamsQuery struct {
	Looking bool `form:"looking" example:"true"`
}
