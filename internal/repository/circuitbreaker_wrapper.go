package repository

import (
	"context"
	"errors"

	"github.com/guttosm/hackathon-service/internal/circuitbreaker"
	"github.com/guttosm/hackathon-service/internal/domain/model"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HackathonRepositoryWithCircuitBreaker guards a HackathonRepositoryInterface.
type HackathonRepositoryWithCircuitBreaker struct {
	repo           HackathonRepositoryInterface
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewHackathonRepositoryWithCircuitBreaker wraps repo with cb.
func NewHackathonRepositoryWithCircuitBreaker(repo HackathonRepositoryInterface, cb *circuitbreaker.CircuitBreaker) *HackathonRepositoryWithCircuitBreaker {
	return &HackathonRepositoryWithCircuitBreaker{repo: repo, circuitBreaker: cb}
}

// List implements HackathonRepositoryInterface.
func (r *HackathonRepositoryWithCircuitBreaker) List(ctx context.Context, filter model.HackathonFilter) (model.Page[model.Hackathon], error) {
	return circuitbreaker.Do(ctx, r.circuitBreaker, func(ctx context.Context) (model.Page[model.Hackathon], error) {
		return r.repo.List(ctx, filter)
	})
}

// FindByID implements HackathonRepositoryInterface.
func (r *HackathonRepositoryWithCircuitBreaker) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Hackathon, error) {
	return circuitbreaker.Do(ctx, r.circuitBreaker, func(ctx context.Context) (*model.Hackathon, error) {
		return r.repo.FindByID(ctx, id)
	})
}

// Create implements HackathonRepositoryInterface.
func (r *HackathonRepositoryWithCircuitBreaker) Create(ctx context.Context, h *model.Hackathon) error {
	return r.circuitBreaker.Execute(ctx, func() error {
		return r.repo.Create(ctx, h)
	})
}

// UpdateStatus implements HackathonRepositoryInterface.
func (r *HackathonRepositoryWithCircuitBreaker) UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.Status) (*model.Hackathon, error) {
	return circuitbreaker.Do(ctx, r.circuitBreaker, func(ctx context.Context) (*model.Hackathon, error) {
		return r.repo.UpdateStatus(ctx, id, status)
	})
}

// GetCircuitBreaker returns the underlying circuit breaker for monitoring.
func (r *HackathonRepositoryWithCircuitBreaker) GetCircuitBreaker() *circuitbreaker.CircuitBreaker {
	return r.circuitBreaker
}

// TeamRepositoryWithCircuitBreaker guards a TeamRepositoryInterface.
type TeamRepositoryWithCircuitBreaker struct {
	repo           TeamRepositoryInterface
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewTeamRepositoryWithCircuitBreaker wraps repo with cb.
func NewTeamRepositoryWithCircuitBreaker(repo TeamRepositoryInterface, cb *circuitbreaker.CircuitBreaker) *TeamRepositoryWithCircuitBreaker {
	return &TeamRepositoryWithCircuitBreaker{repo: repo, circuitBreaker: cb}
}

// ListByHackathon implements TeamRepositoryInterface.
func (r *TeamRepositoryWithCircuitBreaker) ListByHackathon(ctx context.Context, hackathonID primitive.ObjectID, lookingOnly bool) ([]model.Team, error) {
	return circuitbreaker.Do(ctx, r.circuitBreaker, func(ctx context.Context) ([]model.Team, error) {
		return r.repo.ListByHackathon(ctx, hackathonID, lookingOnly)
	})
}

// Create implements TeamRepositoryInterface.
func (r *TeamRepositoryWithCircuitBreaker) Create(ctx context.Context, team *model.Team) error {
	return r.circuitBreaker.Execute(ctx, func() error {
		return r.repo.Create(ctx, team)
	})
}

// GetCircuitBreaker returns the underlying circuit breaker for monitoring.
func (r *TeamRepositoryWithCircuitBreaker) GetCircuitBreaker() *circuitbreaker.CircuitBreaker {
	return r.circuitBreaker
}

// AuditRepositoryWithCircuitBreaker guards an AuditRepositoryInterface.
// Writes rejected by an open circuit are dropped: auditing is best effort.
type AuditRepositoryWithCircuitBreaker struct {
	repo           AuditRepositoryInterface
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewAuditRepositoryWithCircuitBreaker wraps repo with cb.
func NewAuditRepositoryWithCircuitBreaker(repo AuditRepositoryInterface, cb *circuitbreaker.CircuitBreaker) *AuditRepositoryWithCircuitBreaker {
	return &AuditRepositoryWithCircuitBreaker{repo: repo, circuitBreaker: cb}
}

// Create implements AuditRepositoryInterface.
func (r *AuditRepositoryWithCircuitBreaker) Create(ctx context.Context, event *model.AuditEvent) error {
	err := r.circuitBreaker.Execute(ctx, func() error {
		return r.repo.Create(ctx, event)
	})
	return r.dropIfOpen(err, 1)
}

// CreateMany implements AuditRepositoryInterface.
func (r *AuditRepositoryWithCircuitBreaker) CreateMany(ctx context.Context, events []*model.AuditEvent) error {
	err := r.circuitBreaker.Execute(ctx, func() error {
		return r.repo.CreateMany(ctx, events)
	})
	return r.dropIfOpen(err, len(events))
}

// List implements AuditRepositoryInterface.
func (r *AuditRepositoryWithCircuitBreaker) List(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	return circuitbreaker.Do(ctx, r.circuitBreaker, func(ctx context.Context) ([]model.AuditEvent, error) {
		return r.repo.List(ctx, limit)
	})
}

// GetCircuitBreaker returns the underlying circuit breaker for monitoring.
func (r *AuditRepositoryWithCircuitBreaker) GetCircuitBreaker() *circuitbreaker.CircuitBreaker {
	return r.circuitBreaker
}

func (r *AuditRepositoryWithCircuitBreaker) dropIfOpen(err error, n int) error {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		log.Warn().
			Str("circuit_breaker", r.circuitBreaker.Name()).
			Int("events", n).
			Msg("Audit store unavailable, dropping events")
		return nil
	}
	return err
}
