// Package main is the entry point for the hackathon-service application.
//
// @title           Hackathon Service API
// @version         1.0.0
// @description     Hackathon catalog served through a stale-while-revalidate page cache.
//
//	Reads report X-Cache HIT, STALE or MISS. Writes invalidate the affected cached pages.
//
// @termsOfService  http://swagger.io/terms/
//
// @contact.name   API Support
// @contact.email  support@example.com
// @contact.url    https://github.com/guttosm/hackathon-service
//
// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT
//
// @host      localhost:8080
// @BasePath  /
//
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
// @description                 Admin API key. Required for cache administration when authentication is enabled.
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 "Bearer <token>" issued by POST /api/tokens. Required for writes when authentication is enabled.
//
// @tag.name        Hackathons
// @tag.description Hackathon catalog and team registration
//
// @tag.name        Cache
// @tag.description Page cache inspection and administration
//
// @tag.name        Auth
// @tag.description Organizer token issuance
//
// @tag.name        Health
// @tag.description Health check endpoints
package main

import (
	"context"
	"time"

	_ "github.com/guttosm/hackathon-service/docs" // swagger docs

	"github.com/guttosm/hackathon-service/config"
	"github.com/guttosm/hackathon-service/internal/app"
	"github.com/rs/zerolog/log"
)

const closeTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	application, err := app.InitializeApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	server := app.NewServer(application.Router, cfg.Server)
	runErr := server.Run(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	if err := application.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to release resources")
	}
	cancel()

	if runErr != nil {
		log.Fatal().Err(runErr).Msg("Server error")
	}
}
