package repository

import (
	"context"

	"github.com/guttosm/hackathon-service/internal/domain/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HackathonRepositoryInterface defines hackathon persistence operations.
type HackathonRepositoryInterface interface {
	List(ctx context.Context, filter model.HackathonFilter) (model.Page[model.Hackathon], error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Hackathon, error)
	Create(ctx context.Context, h *model.Hackathon) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.Status) (*model.Hackathon, error)
}

// TeamRepositoryInterface defines team persistence operations.
type TeamRepositoryInterface interface {
	ListByHackathon(ctx context.Context, hackathonID primitive.ObjectID, lookingOnly bool) ([]model.Team, error)
	Create(ctx context.Context, team *model.Team) error
}

// AuditRepositoryInterface defines audit event persistence operations.
type AuditRepositoryInterface interface {
	Create(ctx context.Context, event *model.AuditEvent) error
	CreateMany(ctx context.Context, events []*model.AuditEvent) error
	List(ctx context.Context, limit int) ([]model.AuditEvent, error)
}
