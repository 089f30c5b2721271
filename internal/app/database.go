// Package app provides database initialization and setup.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/guttosm/hackathon-service/config"
	"github.com/guttosm/hackathon-service/internal/circuitbreaker"
	"github.com/guttosm/hackathon-service/internal/metrics"
	"github.com/guttosm/hackathon-service/internal/repository"
	"github.com/rs/zerolog/log"
)

const setupTimeout = 5 * time.Second

// StoreComponents holds the repositories the services read and write through.
type StoreComponents struct {
	Hackathons repository.HackathonRepositoryInterface
	Teams      repository.TeamRepositoryInterface
	Audit      repository.AuditRepositoryInterface

	// DB is nil when the in-memory store is in use.
	DB              *repository.MongoDB
	CircuitBreakers map[string]*circuitbreaker.CircuitBreaker
}

// Close disconnects from MongoDB when connected.
func (s *StoreComponents) Close(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close(ctx)
}

// InitializeDatabase connects to MongoDB and wraps each repository in its
// own circuit breaker. When the database is disabled or unreachable the
// in-memory store is used instead.
func InitializeDatabase(cfg config.DatabaseConfig) *StoreComponents {
	if !cfg.Enabled {
		log.Info().Msg("MongoDB disabled - using in-memory store")
		return memoryStore()
	}

	db, err := repository.NewMongoDB(cfg.URI, cfg.DatabaseName)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to MongoDB - continuing with in-memory store")
		return memoryStore()
	}

	log.Info().Str("database", cfg.DatabaseName).Msg("Connected to MongoDB")

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if err := db.SetAuditTTL(ctx, cfg.AuditTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to set audit TTL index")
	}

	hackathonsCB := newCircuitBreaker(cfg, "mongodb_hackathons")
	teamsCB := newCircuitBreaker(cfg, "mongodb_teams")
	auditCB := newCircuitBreaker(cfg, "mongodb_audit")

	return &StoreComponents{
		Hackathons: repository.NewHackathonRepositoryWithCircuitBreaker(repository.NewHackathonRepository(db), hackathonsCB),
		Teams:      repository.NewTeamRepositoryWithCircuitBreaker(repository.NewTeamRepository(db), teamsCB),
		Audit:      repository.NewAuditRepositoryWithCircuitBreaker(repository.NewAuditRepository(db), auditCB),
		DB:         db,
		CircuitBreakers: map[string]*circuitbreaker.CircuitBreaker{
			"mongodb_hackathons": hackathonsCB,
			"mongodb_teams":      teamsCB,
			"mongodb_audit":      auditCB,
		},
	}
}

func memoryStore() *StoreComponents {
	store := repository.NewMemoryStore()
	return &StoreComponents{
		Hackathons: store.Hackathons(),
		Teams:      store.Teams(),
		Audit:      store.Audit(),
	}
}

// newCircuitBreaker builds a breaker that ignores client errors such as
// not-found and duplicates. Transitions are published to Prometheus.
func newCircuitBreaker(cfg config.DatabaseConfig, name string) *circuitbreaker.CircuitBreaker {
	metrics.SetCircuitBreakerState(name, int(circuitbreaker.StateClosed))
	return circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.CircuitBreakerFailureThreshold,
		SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
		Timeout:          cfg.CircuitBreakerTimeout,
		Name:             name,
		IsFailure: func(err error) bool {
			return !repository.IsClientError(err) && !errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.SetCircuitBreakerState(name, int(to))
			log.Warn().
				Str("circuit_breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
}
