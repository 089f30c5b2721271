// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/hackathon-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockHackathonRepository struct {
	mock.Mock
}

func (m *MockHackathonRepository) List(ctx context.Context, filter model.HackathonFilter) (model.Page[model.Hackathon], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(model.Page[model.Hackathon]), args.Error(1)
}

func (m *MockHackathonRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Hackathon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Hackathon), args.Error(1)
}

func (m *MockHackathonRepository) Create(ctx context.Context, h *model.Hackathon) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockHackathonRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.Status) (*model.Hackathon, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Hackathon), args.Error(1)
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) ListByHackathon(ctx context.Context, hackathonID primitive.ObjectID, lookingOnly bool) ([]model.Team, error) {
	args := m.Called(ctx, hackathonID, lookingOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Team), args.Error(1)
}

func (m *MockTeamRepository) Create(ctx context.Context, team *model.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, event *model.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAuditRepository) CreateMany(ctx context.Context, events []*model.AuditEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditEvent), args.Error(1)
}
