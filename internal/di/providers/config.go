// Package providers contains dependency injection providers for the readtrack server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/readtrack/readtrack-server/internal/config"
	"github.com/readtrack/readtrack-server/internal/logger"
	"github.com/readtrack/readtrack-server/internal/service"
	"github.com/readtrack/readtrack-server/internal/validation"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting ReadTrack Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"storage_backend", cfg.Storage.Backend,
		"data_path", cfg.Storage.DataPath,
		"timezone", cfg.App.Location.String(),
	)

	return log, nil
}

// ProvideClock provides the wall clock in the configured timezone.
func ProvideClock(i do.Injector) (service.Clock, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return service.SystemClock(cfg.App.Location), nil
}

// ProvideValidator provides the shared input validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
