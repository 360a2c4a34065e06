package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, name := range []string{"DATABASE_URL", "HTTP_PORT", "TELEGRAM_TOKEN", "TIMEZONE", "RECONCILE_INTERVAL", "LOG_LEVEL"} {
		key := Prefix + "_" + name
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "planner.db", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.Equal(t, time.Hour, cfg.ReconcileInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Error(t, cfg.RequireTelegram())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PLANNER_DATABASE_URL", "/tmp/p.db")
	t.Setenv("PLANNER_HTTP_PORT", "9000")
	t.Setenv("PLANNER_TELEGRAM_TOKEN", " token ")
	t.Setenv("PLANNER_TIMEZONE", "Europe/Berlin")
	t.Setenv("PLANNER_RECONCILE_INTERVAL", "15m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/p.db", cfg.DatabaseURL)
	assert.Equal(t, ":9000", cfg.HTTPAddr())
	assert.Equal(t, 15*time.Minute, cfg.ReconcileInterval)
	assert.NoError(t, cfg.RequireTelegram())
	assert.Equal(t, "token", cfg.TelegramToken)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("PLANNER_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PLANNER_TIMEZONE", "UTC")
	t.Setenv("PLANNER_HTTP_PORT", "0")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("PLANNER_HTTP_PORT", "8080")
	t.Setenv("PLANNER_RECONCILE_INTERVAL", "soon")
	_, err = Load()
	assert.Error(t, err)
}
