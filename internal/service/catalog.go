package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/guttosm/hackathon-service/internal/cache"
	"github.com/guttosm/hackathon-service/internal/domain/dto"
	"github.com/guttosm/hackathon-service/internal/domain/model"
	"github.com/guttosm/hackathon-service/internal/repository"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// CacheStatus tells the caller where a read was served from.
type CacheStatus string

const (
	// CacheHit means a fresh cached value was returned.
	CacheHit CacheStatus = "HIT"
	// CacheStale means a stale value was returned while a refetch runs in the background.
	CacheStale CacheStatus = "STALE"
	// CacheMiss means the value was fetched from the store before returning.
	CacheMiss CacheStatus = "MISS"
)

// RouteHackathons is the logical route of hackathon listings.
const RouteHackathons = "/hackathons"

// HackathonRoute is the logical route of one hackathon.
func HackathonRoute(id primitive.ObjectID) string {
	return RouteHackathons + "/" + id.Hex()
}

// TeamsRoute is the logical route of a hackathon's teams.
func TeamsRoute(id primitive.ObjectID) string {
	return HackathonRoute(id) + "/teams"
}

// CatalogService serves hackathons and teams. Reads go through the cache
// Manager carried by the context; writes invalidate the affected routes.
type CatalogService interface {
	ListHackathons(ctx context.Context, filter model.HackathonFilter) (model.Page[model.Hackathon], CacheStatus, error)
	GetHackathon(ctx context.Context, id primitive.ObjectID) (model.Hackathon, CacheStatus, error)
	ListTeams(ctx context.Context, hackathonID primitive.ObjectID, lookingOnly bool) ([]model.Team, CacheStatus, error)

	CreateHackathon(ctx context.Context, req dto.CreateHackathonRequest, organizerID string) (*model.Hackathon, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.Status) (*model.Hackathon, error)
	CreateTeam(ctx context.Context, hackathonID primitive.ObjectID, req dto.CreateTeamRequest) (*model.Team, error)

	// Refresh refetches one cached route in the foreground and returns its key.
	Refresh(ctx context.Context, route string, params map[string]any) (string, error)
	// WarmUp prefetches the first listing page for each status concurrently.
	WarmUp(ctx context.Context, statuses []model.Status) error
}

// CatalogConfig tunes how catalog reads use the cache.
type CatalogConfig struct {
	// TTL is passed to the cache for every fetched value. Zero uses the manager default.
	TTL time.Duration
	// TeamsStaleTime overrides the stale threshold for team listings, which change more often.
	TeamsStaleTime time.Duration
}

// CatalogServiceImpl implements CatalogService.
type CatalogServiceImpl struct {
	hackathons repository.HackathonRepositoryInterface
	teams      repository.TeamRepositoryInterface
	cfg        CatalogConfig
}

// NewCatalogService creates a catalog service.
func NewCatalogService(hackathons repository.HackathonRepositoryInterface, teams repository.TeamRepositoryInterface, cfg CatalogConfig) CatalogService {
	return &CatalogServiceImpl{
		hackathons: hackathons,
		teams:      teams,
		cfg:        cfg,
	}
}

// ListHackathons returns one page of hackathons.
func (s *CatalogServiceImpl) ListHackathons(ctx context.Context, filter model.HackathonFilter) (model.Page[model.Hackathon], CacheStatus, error) {
	filter = filter.Normalize()
	return read(ctx, RouteHackathons, filter.Params(), s.listFetcher(filter), s.queryOptions()...)
}

// GetHackathon returns one hackathon.
func (s *CatalogServiceImpl) GetHackathon(ctx context.Context, id primitive.ObjectID) (model.Hackathon, CacheStatus, error) {
	return read(ctx, HackathonRoute(id), nil, s.hackathonFetcher(id), s.queryOptions()...)
}

// ListTeams returns the teams of a hackathon, optionally only those looking for members.
func (s *CatalogServiceImpl) ListTeams(ctx context.Context, hackathonID primitive.ObjectID, lookingOnly bool) ([]model.Team, CacheStatus, error) {
	opts := s.queryOptions()
	if s.cfg.TeamsStaleTime > 0 {
		opts = append(opts, cache.WithStaleTime(s.cfg.TeamsStaleTime))
	}
	return read(ctx, TeamsRoute(hackathonID), teamParams(lookingOnly), s.teamsFetcher(hackathonID, lookingOnly), opts...)
}

// CreateHackathon stores a new hackathon in the upcoming status.
func (s *CatalogServiceImpl) CreateHackathon(ctx context.Context, req dto.CreateHackathonRequest, organizerID string) (*model.Hackathon, error) {
	m, err := cache.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	h := &model.Hackathon{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.StatusUpcoming,
		Location:    req.Location,
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		MaxTeamSize: req.MaxTeamSize,
		Tags:        req.Tags,
		OrganizerID: organizerID,
	}
	if err := s.hackathons.Create(ctx, h); err != nil {
		return nil, err
	}

	invalidate(m, listingsPattern)
	return h, nil
}

// UpdateStatus moves a hackathon forward in its lifecycle.
func (s *CatalogServiceImpl) UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.Status) (*model.Hackathon, error) {
	m, err := cache.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	current, err := s.hackathons.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, status)
	}

	updated, err := s.hackathons.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	// Listings filter by status and the item route embeds it.
	invalidate(m, listingsPattern+"|^"+regexp.QuoteMeta(HackathonRoute(id))+"$")
	return updated, nil
}

// CreateTeam registers a team for a hackathon that still accepts teams.
func (s *CatalogServiceImpl) CreateTeam(ctx context.Context, hackathonID primitive.ObjectID, req dto.CreateTeamRequest) (*model.Team, error) {
	m, err := cache.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	h, err := s.hackathons.FindByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if !h.AcceptsTeams() {
		return nil, ErrRegistrationClosed
	}

	team := &model.Team{
		HackathonID:       hackathonID,
		Name:              strings.TrimSpace(req.Name),
		Members:           req.Members,
		LookingForMembers: req.LookingForMembers,
	}
	if team.Name == "" {
		return nil, fmt.Errorf("%w: team name is empty", ErrInvalidInput)
	}
	if h.MaxTeamSize > 0 && len(team.Members) > h.MaxTeamSize {
		return nil, fmt.Errorf("%w: team has %d members, limit is %d", ErrInvalidInput, len(team.Members), h.MaxTeamSize)
	}
	if !team.HasRoomFor(h.MaxTeamSize) {
		team.LookingForMembers = false
	}

	if err := s.teams.Create(ctx, team); err != nil {
		return nil, err
	}

	invalidate(m, "^"+regexp.QuoteMeta(TeamsRoute(hackathonID)))
	return team, nil
}

// Refresh refetches the value behind route and params, replacing the
// cached one even when it is fresh.
func (s *CatalogServiceImpl) Refresh(ctx context.Context, route string, params map[string]any) (string, error) {
	switch {
	case route == RouteHackathons:
		filter, err := filterFromParams(params)
		if err != nil {
			return "", err
		}
		return refresh(ctx, route, filter.Params(), s.listFetcher(filter))
	case strings.HasPrefix(route, RouteHackathons+"/"):
		rest := strings.TrimPrefix(route, RouteHackathons+"/")
		idHex, sub, _ := strings.Cut(rest, "/")
		id, err := repository.ParseID(idHex)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrUnknownRoute, route)
		}
		switch sub {
		case "":
			return refresh(ctx, HackathonRoute(id), nil, s.hackathonFetcher(id))
		case "teams":
			looking := fmt.Sprint(params["looking"]) == "true"
			return refresh(ctx, TeamsRoute(id), teamParams(looking), s.teamsFetcher(id, looking))
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownRoute, route)
}

// WarmUp prefetches the first page of the unfiltered listing and of each
// status. It returns the first fetch error.
func (s *CatalogServiceImpl) WarmUp(ctx context.Context, statuses []model.Status) error {
	filters := []model.HackathonFilter{{}}
	for _, st := range statuses {
		filters = append(filters, model.HackathonFilter{Status: st})
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range filters {
		g.Go(func() error {
			_, _, err := s.ListHackathons(ctx, f)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("warm up cache: %w", err)
	}
	log.Info().Int("pages", len(filters)).Msg("Cache warmed up")
	return nil
}

func (s *CatalogServiceImpl) queryOptions() []cache.QueryOption {
	return []cache.QueryOption{cache.WithTTL(s.cfg.TTL)}
}

func (s *CatalogServiceImpl) listFetcher(filter model.HackathonFilter) cache.Fetcher[model.Page[model.Hackathon]] {
	return func(ctx context.Context) (model.Page[model.Hackathon], error) {
		return s.hackathons.List(ctx, filter)
	}
}

func (s *CatalogServiceImpl) hackathonFetcher(id primitive.ObjectID) cache.Fetcher[model.Hackathon] {
	return func(ctx context.Context) (model.Hackathon, error) {
		h, err := s.hackathons.FindByID(ctx, id)
		if err != nil {
			return model.Hackathon{}, err
		}
		return *h, nil
	}
}

func (s *CatalogServiceImpl) teamsFetcher(hackathonID primitive.ObjectID, lookingOnly bool) cache.Fetcher[[]model.Team] {
	return func(ctx context.Context) ([]model.Team, error) {
		return s.teams.ListByHackathon(ctx, hackathonID, lookingOnly)
	}
}

// listingsPattern matches every hackathon listing key but no item key.
var listingsPattern = `^` + regexp.QuoteMeta(RouteHackathons) + `(\?|$)`

// read serves one value through a short-lived Query. Cached values are
// returned immediately; a cold key waits for the foreground fetch.
func read[T any](ctx context.Context, route string, params map[string]any, fetcher cache.Fetcher[T], opts ...cache.QueryOption) (T, CacheStatus, error) {
	var zero T

	q, err := cache.UsePageCache(ctx, route, params, fetcher, opts...)
	if err != nil {
		return zero, "", err
	}
	defer q.Close()

	if st := q.State(); st.HasData {
		if st.IsStale {
			return st.Data, CacheStale, nil
		}
		return st.Data, CacheHit, nil
	}

	done := make(chan struct{})
	go func() {
		q.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return zero, CacheMiss, ctx.Err()
	}

	st := q.State()
	if st.Err != nil {
		return zero, CacheMiss, st.Err
	}
	return st.Data, CacheMiss, nil
}

func refresh[T any](ctx context.Context, route string, params map[string]any, fetcher cache.Fetcher[T]) (string, error) {
	q, err := cache.UsePageCache(ctx, route, params, fetcher, cache.WithEnabled(false))
	if err != nil {
		return "", err
	}
	defer q.Close()

	if err := q.Mutate(ctx); err != nil {
		return q.Key(), err
	}
	return q.Key(), nil
}

func invalidate(m *cache.Manager, pattern string) {
	n, err := m.InvalidatePattern(pattern)
	if err != nil {
		log.Error().Err(err).Str("pattern", pattern).Msg("Cache invalidation failed")
		return
	}
	log.Debug().Str("pattern", pattern).Int("removed", n).Msg("Cache invalidated")
}

func teamParams(lookingOnly bool) map[string]any {
	if !lookingOnly {
		return nil
	}
	return map[string]any{"looking": true}
}

func filterFromParams(params map[string]any) (model.HackathonFilter, error) {
	var f model.HackathonFilter
	if v, ok := params["status"]; ok && v != nil {
		f.Status = model.Status(fmt.Sprint(v))
		if f.Status != "" && !f.Status.Valid() {
			return f, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
		}
	}
	if v, ok := params["tag"]; ok && v != nil {
		f.Tag = fmt.Sprint(v)
	}
	for name, dst := range map[string]*int{"page": &f.Page, "limit": &f.Limit} {
		v, ok := params[name]
		if !ok || v == nil {
			continue
		}
		n, err := strconv.Atoi(fmt.Sprint(v))
		if err != nil {
			return f, fmt.Errorf("%w: %s must be an integer", ErrInvalidInput, name)
		}
		*dst = n
	}
	return f.Normalize(), nil
}
