package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/hatch-crm/hatch/internal/shared/config"
)

type Config struct {
	Server   sharedConfig.ServerConfig   `mapstructure:"server"`
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Email    sharedConfig.EmailConfig    `mapstructure:"email"`
	Routing  sharedConfig.RoutingConfig  `mapstructure:"routing"`
	SLA      sharedConfig.SLAConfig      `mapstructure:"sla"`
	Metrics  sharedConfig.MetricsConfig  `mapstructure:"metrics"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables.
// An explicit configPath takes precedence over the search paths.
func Load(env string, configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("HATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !asConfigNotFound(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func asConfigNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	nf, ok := err.(viper.ConfigFileNotFoundError)
	if ok {
		*target = nf
	}
	return ok
}

func validate(cfg *Config) error {
	if cfg.SLA.AmberRatio <= 0 || cfg.SLA.AmberRatio >= 1 {
		return fmt.Errorf("sla.amber_ratio must be between 0 and 1, got %v", cfg.SLA.AmberRatio)
	}
	if cfg.SLA.DeadlineMinutes <= 0 {
		return fmt.Errorf("sla.deadline_minutes must be positive")
	}
	if cfg.SLA.GraceMinutes < 0 {
		return fmt.Errorf("sla.grace_minutes cannot be negative")
	}
	switch cfg.SLA.EscalationMode {
	case "reassign", "notify", "both":
	default:
		return fmt.Errorf("sla.escalation_mode must be one of reassign, notify, both")
	}
	switch cfg.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver must be mysql or sqlite")
	}
	switch cfg.Routing.LockBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("routing.lock_backend must be memory or redis")
	}
	if cfg.Routing.LockBackend == "redis" && !cfg.Redis.Enabled() {
		return fmt.Errorf("routing.lock_backend is redis but redis.host is empty")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.timezone", "UTC")
	v.SetDefault("server.rate_limit_per_minute", 0)

	// Database defaults
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "hatch_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults (empty host disables Redis-backed components)
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Email defaults
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 1025)
	v.SetDefault("email.from_address", "routing@hatch.local")
	v.SetDefault("email.from_name", "Hatch Routing")

	// Routing defaults
	v.SetDefault("routing.default_pool_id", "default")
	v.SetDefault("routing.default_max_capacity", 25)
	v.SetDefault("routing.static_owner_consumes_capacity", true)
	v.SetDefault("routing.lock_backend", "memory")
	v.SetDefault("routing.lock_ttl_seconds", 10)
	v.SetDefault("routing.rebuild_cron", "0 3 * * *")

	// SLA defaults
	v.SetDefault("sla.deadline_minutes", 60)
	v.SetDefault("sla.amber_ratio", 0.75)
	v.SetDefault("sla.grace_minutes", 0)
	v.SetDefault("sla.escalation_mode", "both")
	v.SetDefault("sla.sweep_interval_seconds", 60)
	v.SetDefault("sla.sweep_batch_size", 500)
	v.SetDefault("sla.sweep_workers", 4)

	// Metrics defaults
	v.SetDefault("metrics.dashboard_cache_seconds", 15)
}
