// Package bootstrap loads configuration and opens the process-wide
// resources shared by every command.
package bootstrap

import (
	"fmt"
	"io"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/hatch-crm/hatch/internal/infrastructure/config"
	"github.com/hatch-crm/hatch/internal/infrastructure/database"
	httpRouter "github.com/hatch-crm/hatch/internal/interfaces/http"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	"github.com/hatch-crm/hatch/internal/shared/logger"
	"github.com/hatch-crm/hatch/internal/shared/version"
)

// Options are the flags every command shares.
type Options struct {
	Env        string
	ConfigPath string
}

// ResolveEnv lets the ENV variable override the flag.
func (o Options) ResolveEnv() string {
	if envVar := os.Getenv("ENV"); envVar != "" {
		return envVar
	}
	return o.Env
}

// Load reads the configuration, then initializes the logger and the business timezone.
func Load(opts Options) (*config.Config, logger.Interface, error) {
	env := opts.ResolveEnv()

	cfg, err := config.Load(env, opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = MapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	return cfg, logger.NewLogger(), nil
}

// OpenDatabase initializes the process-wide connection.
func OpenDatabase(cfg *config.Config, log logger.Interface) error {
	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Infow("database connected", "driver", cfg.Database.Driver)
	return nil
}

// NewContainer loads everything and wires the application. The returned
// cleanup stops background services and closes the database.
func NewContainer(opts Options) (*httpRouter.Container, *config.Config, logger.Interface, func(), error) {
	cfg, log, err := Load(opts)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := OpenDatabase(cfg, log); err != nil {
		return nil, nil, nil, nil, err
	}

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard

	container, err := httpRouter.NewContainer(database.Get(), cfg, log, version.Current)
	if err != nil {
		_ = database.Close()
		return nil, nil, nil, nil, err
	}

	cleanup := func() {
		container.Shutdown()
		if err := database.Close(); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}
	return container, cfg, log, cleanup, nil
}

// MapEnvToGinMode maps a deployment environment to a gin mode.
func MapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return gin.ReleaseMode
	case "test", "testing":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
