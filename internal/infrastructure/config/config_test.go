package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  database: ":memory:"
sla:
  deadline_minutes: 30
  escalation_mode: notify
`)

	cfg, err := Load("test", path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 30, cfg.SLA.DeadlineMinutes)
	assert.Equal(t, "notify", cfg.SLA.EscalationMode)
	assert.Equal(t, 0.75, cfg.SLA.AmberRatio)
	assert.Equal(t, "memory", cfg.Routing.LockBackend)
	assert.Equal(t, "test", cfg.Server.Mode)
	assert.False(t, cfg.Redis.Enabled())
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
sla:
  deadline_minutes: 30
`)
	t.Setenv("HATCH_SLA_DEADLINE_MINUTES", "45")

	cfg, err := Load("", path)
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.SLA.DeadlineMinutes)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"amber ratio out of range", "sla:\n  amber_ratio: 1.5\n"},
		{"non positive deadline", "sla:\n  deadline_minutes: 0\n"},
		{"negative grace", "sla:\n  grace_minutes: -1\n"},
		{"unknown escalation mode", "sla:\n  escalation_mode: page\n"},
		{"unknown driver", "database:\n  driver: postgres\n"},
		{"unknown lock backend", "routing:\n  lock_backend: etcd\n"},
		{"redis lock without redis", "routing:\n  lock_backend: redis\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("", writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
