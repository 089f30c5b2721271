// Package model provides domain models for the hackathon service.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the lifecycle stage of a hackathon.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOpen      Status = "open"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusUpcoming, StatusOpen, StatusOngoing, StatusCompleted}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOpen, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether a hackathon may move from s to next.
// Statuses only move forward; skipping a stage is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return s.rank() < next.rank()
}

func (s Status) rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Hackathon is an event teams can register for.
type Hackathon struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug        string             `bson:"slug" json:"slug"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      Status             `bson:"status" json:"status"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	StartsAt    time.Time          `bson:"starts_at" json:"starts_at"`
	EndsAt      time.Time          `bson:"ends_at" json:"ends_at"`
	MaxTeamSize int                `bson:"max_team_size" json:"max_team_size"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	OrganizerID string             `bson:"organizer_id" json:"organizer_id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// AcceptsTeams reports whether new teams can still register.
func (h *Hackathon) AcceptsTeams() bool {
	return h.Status == StatusUpcoming || h.Status == StatusOpen
}

// HackathonFilter narrows a hackathon listing.
type HackathonFilter struct {
	Status Status
	Tag    string
	Page   int
	Limit  int
}

const (
	// DefaultPageLimit is used when a listing does not ask for a page size.
	DefaultPageLimit = 20
	// MaxPageLimit caps the page size of any listing.
	MaxPageLimit = 100
)

// Normalize clamps paging to sane bounds.
func (f HackathonFilter) Normalize() HackathonFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return f
}

// Skip returns the number of documents before the requested page.
func (f HackathonFilter) Skip() int64 {
	n := f.Normalize()
	return int64((n.Page - 1) * n.Limit)
}

// Params returns the filter as cache key parameters. Unset fields are
// left empty so they drop out of the key.
func (f HackathonFilter) Params() map[string]any {
	n := f.Normalize()
	return map[string]any{
		"status": string(n.Status),
		"tag":    n.Tag,
		"page":   n.Page,
		"limit":  n.Limit,
	}
}

// Page is one page of a listing.
type Page[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}
