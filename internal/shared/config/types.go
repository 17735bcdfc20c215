package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	Timezone       string   `mapstructure:"timezone"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// RateLimitPerMinute caps record admissions per organization. Zero
	// disables the limiter; it also needs Redis.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects mysql or sqlite. For sqlite, Database is the file
// path and the network fields are ignored.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	if d.IsSQLite() {
		return d.Database + "?_foreign_keys=on&_busy_timeout=5000"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

func (d *DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Enabled reports whether a Redis host is configured.
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
}

// RoutingConfig holds the assignment engine knobs.
type RoutingConfig struct {
	DefaultPoolID               string `mapstructure:"default_pool_id"`
	DefaultMaxCapacity          int    `mapstructure:"default_max_capacity"`
	StaticOwnerConsumesCapacity bool   `mapstructure:"static_owner_consumes_capacity"`
	LockBackend                 string `mapstructure:"lock_backend"`
	LockTTLSeconds              int    `mapstructure:"lock_ttl_seconds"`
	RebuildCron                 string `mapstructure:"rebuild_cron"`
}

func (r *RoutingConfig) LockTTL() time.Duration {
	if r.LockTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(r.LockTTLSeconds) * time.Second
}

// SLAConfig holds the SLA timer thresholds and sweep settings.
type SLAConfig struct {
	DeadlineMinutes      int      `mapstructure:"deadline_minutes"`
	AmberRatio           float64  `mapstructure:"amber_ratio"`
	GraceMinutes         int      `mapstructure:"grace_minutes"`
	EscalationMode       string   `mapstructure:"escalation_mode"`
	SweepIntervalSeconds int      `mapstructure:"sweep_interval_seconds"`
	SweepBatchSize       int      `mapstructure:"sweep_batch_size"`
	SweepWorkers         int      `mapstructure:"sweep_workers"`
	NotifyRecipients     []string `mapstructure:"notify_recipients"`
}

func (s *SLAConfig) Deadline() time.Duration {
	return time.Duration(s.DeadlineMinutes) * time.Minute
}

func (s *SLAConfig) Grace() time.Duration {
	return time.Duration(s.GraceMinutes) * time.Minute
}

func (s *SLAConfig) SweepInterval() time.Duration {
	if s.SweepIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

type MetricsConfig struct {
	DashboardCacheSeconds int `mapstructure:"dashboard_cache_seconds"`
}

func (m *MetricsConfig) DashboardCacheTTL() time.Duration {
	return time.Duration(m.DashboardCacheSeconds) * time.Second
}
