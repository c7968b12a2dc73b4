// Package providers contains dependency injection providers for the Pagebound server.
package providers

import (
	"io"

	"github.com/samber/do/v2"

	"github.com/listenupapp/pagebound-server/internal/config"
	"github.com/listenupapp/pagebound-server/internal/logger"
)

// Args are the command-line arguments the configuration is loaded from.
type Args []string

// LogOutput redirects console logging. Tools whose stdout carries results
// register one pointing at stderr.
type LogOutput struct {
	io.Writer
}

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	args := do.MustInvoke[Args](i)
	return config.LoadConfig(args)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	var writer io.Writer
	if out, err := do.Invoke[LogOutput](i); err == nil {
		writer = out.Writer
	}

	log := logger.New(logger.Config{
		Writer:      writer,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
		File: logger.FileConfig{
			Path:       cfg.Logger.File,
			MaxSizeMB:  cfg.Logger.MaxSizeMB,
			MaxBackups: cfg.Logger.MaxBackups,
			Compress:   true,
		},
	})

	log.Info("Starting Pagebound Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
		"streak_timezone", cfg.Engine.StreakLocation.String(),
	)

	return log, nil
}
