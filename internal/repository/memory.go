package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/guttosm/hackathon-service/internal/domain/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is a process-local store used when MongoDB is disabled.
// It implements the hackathon, team and audit repository interfaces.
type MemoryStore struct {
	mu         sync.RWMutex
	hackathons map[primitive.ObjectID]model.Hackathon
	teams      []model.Team
	audit      []model.AuditEvent
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hackathons: make(map[primitive.ObjectID]model.Hackathon)}
}

// Hackathons returns the store as a HackathonRepositoryInterface.
func (s *MemoryStore) Hackathons() HackathonRepositoryInterface { return memoryHackathons{s} }

// Teams returns the store as a TeamRepositoryInterface.
func (s *MemoryStore) Teams() TeamRepositoryInterface { return memoryTeams{s} }

// Audit returns the store as an AuditRepositoryInterface.
func (s *MemoryStore) Audit() AuditRepositoryInterface { return memoryAudit{s} }

type memoryHackathons struct{ s *MemoryStore }

func (r memoryHackathons) List(_ context.Context, filter model.HackathonFilter) (model.Page[model.Hackathon], error) {
	filter = filter.Normalize()

	r.s.mu.RLock()
	matched := make([]model.Hackathon, 0, len(r.s.hackathons))
	for _, h := range r.s.hackathons {
		if filter.Status != "" && h.Status != filter.Status {
			continue
		}
		if filter.Tag != "" && !slices.Contains(h.Tags, filter.Tag) {
			continue
		}
		matched = append(matched, cloneHackathon(h))
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].StartsAt.Equal(matched[j].StartsAt) {
			return matched[i].ID.Hex() < matched[j].ID.Hex()
		}
		return matched[i].StartsAt.Before(matched[j].StartsAt)
	})

	page := model.Page[model.Hackathon]{
		Items: []model.Hackathon{},
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: int64(len(matched)),
	}
	start := int(filter.Skip())
	if start < len(matched) {
		end := min(start+filter.Limit, len(matched))
		page.Items = matched[start:end]
	}
	return page, nil
}

func (r memoryHackathons) FindByID(_ context.Context, id primitive.ObjectID) (*model.Hackathon, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	h, ok := r.s.hackathons[id]
	if !ok {
		return nil, ErrNotFound
	}
	h = cloneHackathon(h)
	return &h, nil
}

func (r memoryHackathons) Create(_ context.Context, h *model.Hackathon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.hackathons {
		if existing.Slug == h.Slug {
			return ErrDuplicate
		}
	}
	now := time.Now().UTC()
	if h.ID.IsZero() {
		h.ID = primitive.NewObjectID()
	}
	h.CreatedAt = now
	h.UpdatedAt = now
	r.s.hackathons[h.ID] = cloneHackathon(*h)
	return nil
}

func (r memoryHackathons) UpdateStatus(_ context.Context, id primitive.ObjectID, status model.Status) (*model.Hackathon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	h, ok := r.s.hackathons[id]
	if !ok {
		return nil, ErrNotFound
	}
	h.Status = status
	h.UpdatedAt = time.Now().UTC()
	r.s.hackathons[id] = h
	h = cloneHackathon(h)
	return &h, nil
}

type memoryTeams struct{ s *MemoryStore }

func (r memoryTeams) ListByHackathon(_ context.Context, hackathonID primitive.ObjectID, lookingOnly bool) ([]model.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	teams := []model.Team{}
	for _, t := range r.s.teams {
		if t.HackathonID != hackathonID || (lookingOnly && !t.LookingForMembers) {
			continue
		}
		t.Members = slices.Clone(t.Members)
		teams = append(teams, t)
	}
	return teams, nil
}

func (r memoryTeams) Create(_ context.Context, team *model.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.teams {
		if t.HackathonID == team.HackathonID && t.Name == team.Name {
			return ErrDuplicate
		}
	}
	if team.ID.IsZero() {
		team.ID = primitive.NewObjectID()
	}
	team.CreatedAt = time.Now().UTC()
	stored := *team
	stored.Members = slices.Clone(team.Members)
	r.s.teams = append(r.s.teams, stored)
	return nil
}

type memoryAudit struct{ s *MemoryStore }

func (r memoryAudit) Create(ctx context.Context, event *model.AuditEvent) error {
	return r.CreateMany(ctx, []*model.AuditEvent{event})
}

func (r memoryAudit) CreateMany(_ context.Context, events []*model.AuditEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range events {
		prepareEvent(e)
		r.s.audit = append(r.s.audit, *e)
	}
	return nil
}

func (r memoryAudit) List(_ context.Context, limit int) ([]model.AuditEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	events := make([]model.AuditEvent, 0, len(r.s.audit))
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		if limit > 0 && len(events) == limit {
			break
		}
		events = append(events, r.s.audit[i])
	}
	return events, nil
}

func cloneHackathon(h model.Hackathon) model.Hackathon {
	h.Tags = slices.Clone(h.Tags)
	return h
}
