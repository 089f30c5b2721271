//go:build integration

package app

import (
	"context"
	"testing"
	"time"

	"github.com/guttosm/hackathon-service/config"
	"github.com/guttosm/hackathon-service/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDatabase_Integration(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{
		URI:                            getSharedContainerURI(),
		DatabaseName:                   sanitizeDBNameForApp(t.Name()),
		AuditTTL:                       24 * time.Hour,
		Enabled:                        true,
		CircuitBreakerFailureThreshold: 5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,
	}

	store := InitializeDatabase(cfg)
	require.NotNil(t, store)
	require.NotNil(t, store.DB)
	t.Cleanup(func() {
		_ = store.DB.Database.Drop(ctx)
		_ = store.Close(ctx)
	})

	assert.Len(t, store.CircuitBreakers, 3)
	assert.NoError(t, store.DB.HealthCheck(ctx))

	h := &model.Hackathon{
		Slug:     "db-init",
		Title:    "DB Init",
		Status:   model.StatusUpcoming,
		StartsAt: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Hackathons.Create(ctx, h))

	got, err := store.Hackathons.FindByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "db-init", got.Slug)

	_, err = store.Hackathons.FindByID(ctx, model.Hackathon{}.ID)
	assert.Error(t, err)
	for name, cb := range store.CircuitBreakers {
		assert.False(t, cb.IsOpen(), name)
	}
}
