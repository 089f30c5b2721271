// Package app provides logger initialization.
package app

import (
	"github.com/guttosm/hackathon-service/config"
	"github.com/guttosm/hackathon-service/internal/logger"
)

// InitializeLogger configures the global logger from the log settings.
func InitializeLogger(cfg config.LogConfig) {
	logger.Init(cfg.Level, cfg.Pretty)
}
