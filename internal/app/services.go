// Package app provides service initialization.
package app

import (
	"fmt"

	"github.com/guttosm/hackathon-service/config"
	"github.com/guttosm/hackathon-service/internal/middleware"
	"github.com/guttosm/hackathon-service/internal/service"
	"github.com/rs/zerolog/log"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// ServiceComponents holds service-related components.
type ServiceComponents struct {
	Catalog service.CatalogService
	Audit   *service.AuditServiceImpl
	// Tokens and APIKeys are nil when authentication is disabled.
	Tokens  service.TokenService
	APIKeys *middleware.APIKeyVerifier
}

// InitializeServices initializes business logic services over the store.
func InitializeServices(cfg config.Config, store *StoreComponents) (*ServiceComponents, error) {
	components := &ServiceComponents{
		Catalog: service.NewCatalogService(store.Hackathons, store.Teams, service.CatalogConfig{
			TTL: cfg.Cache.DefaultTTL,
		}),
		Audit: service.NewAuditService(store.Audit, service.DefaultAuditConfig()),
	}

	if !cfg.Auth.Enabled {
		return components, nil
	}

	if cfg.Auth.JWTSecretKey == defaultJWTSecret {
		log.Warn().Msg("JWT_SECRET_KEY is the default value - set a real secret in production")
	}
	tokens, err := service.NewTokenService(cfg.Auth)
	if err != nil {
		components.Audit.Stop()
		return nil, fmt.Errorf("token service: %w", err)
	}
	components.Tokens = tokens

	components.APIKeys = middleware.NewAPIKeyVerifier(cfg.Auth.APIKeyHashes)
	if !components.APIKeys.Enabled() {
		log.Warn().Msg("No API_KEY_HASHES configured - cache administration is locked")
	}

	return components, nil
}
