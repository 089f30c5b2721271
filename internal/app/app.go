// Package app provides application initialization and dependency injection.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/config"
	"github.com/guttosm/hackathon-service/internal/cache"
	"github.com/guttosm/hackathon-service/internal/domain/model"
	"github.com/guttosm/hackathon-service/internal/http"
	"github.com/guttosm/hackathon-service/internal/logger"
	"github.com/guttosm/hackathon-service/internal/metrics"
	"github.com/guttosm/hackathon-service/internal/middleware"
	"github.com/rs/zerolog/log"
)

// App owns every long-lived component and releases them in Close.
type App struct {
	Router   *gin.Engine
	Provider *cache.Provider
	Store    *StoreComponents
	Services *ServiceComponents

	limiter   *middleware.ShardedRateLimiter
	replays   *middleware.IdempotencyStore
	closeOnce sync.Once
	closeErr  error
}

// InitializeApp creates and wires all application dependencies.
func InitializeApp(cfg config.Config) (*App, error) {
	// Logger first, everything below logs.
	InitializeLogger(cfg.Log)

	provider := InitializeCache(cfg.Cache)
	store := InitializeDatabase(cfg.Database)

	services, err := InitializeServices(cfg, store)
	if err != nil {
		provider.Close()
		_ = store.Close(context.Background())
		return nil, err
	}

	routerComponents := InitializeRouter(cfg, provider, store, services)

	app := &App{
		Router:   http.NewRouter(routerComponents.HealthHandler, routerComponents.Config),
		Provider: provider,
		Store:    store,
		Services: services,
		limiter:  routerComponents.RateLimiter,
		replays:  routerComponents.Idempotency,
	}

	app.warmUp(cfg.Cache.WarmUp)
	return app, nil
}

// InitializeCache creates the process-wide cache provider.
func InitializeCache(cfg config.CacheConfig) *cache.Provider {
	return cache.NewProvider(cache.Config{
		DefaultTTL:     cfg.DefaultTTL,
		StaleTime:      cfg.StaleTime,
		GCInterval:     cfg.GCInterval,
		MaxSize:        cfg.MaxSize,
		MaxMemoryUsage: cfg.MaxMemoryUsage,
	},
		cache.WithLogger(logger.Component("cache")),
		cache.WithRecorder(metrics.CacheRecorder{}),
	)
}

// warmUp prefetches listing pages. Failures are logged, the cache fills on demand.
func (a *App) warmUp(statuses []string) {
	if len(statuses) == 0 {
		return
	}

	valid := make([]model.Status, 0, len(statuses))
	for _, s := range statuses {
		st := model.Status(s)
		if !st.Valid() {
			log.Warn().Str("status", s).Msg("Ignoring unknown warm-up status")
			continue
		}
		valid = append(valid, st)
	}

	ctx, cancel := context.WithTimeout(cache.WithProvider(context.Background(), a.Provider), setupTimeout)
	defer cancel()
	if err := a.Services.Catalog.WarmUp(ctx, valid); err != nil {
		log.Warn().Err(err).Msg("Cache warm-up failed")
	}
}

// Close drains the audit queue and releases the cache and the database.
// It is safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		a.Services.Audit.Stop()
		if a.limiter != nil {
			a.limiter.Stop()
		}
		if a.replays != nil {
			a.replays.Close()
		}
		a.Provider.Close()

		if err := a.Store.Close(ctx); err != nil {
			a.closeErr = fmt.Errorf("close store: %w", err)
		}
	})
	return a.closeErr
}
