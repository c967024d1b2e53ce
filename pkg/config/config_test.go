package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 5, cfg.Sync.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Calendar.RefreshBuffer)
	assert.Equal(t, 4*time.Hour, cfg.KeepAlive.Interval)
	assert.Equal(t, 15*time.Second, cfg.Sync.ExternalTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Sync.FullSyncTimeout)
	assert.Equal(t, []string{"offline_access", "Calendars.ReadWrite", "User.Read"}, cfg.Calendar.Scopes)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SYNC_BATCH_SIZE", "7")
	t.Setenv("KEEPALIVE_INTERVAL", "30m")
	t.Setenv("TOKEN_REFRESH_BUFFER", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Sync.BatchSize)
	assert.Equal(t, 30*time.Minute, cfg.KeepAlive.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Calendar.RefreshBuffer)
}

func TestLoadProductionRequiresSecrets(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ENV", EnvProduction)

	_, err := Load()
	require.Error(t, err)

	t.Setenv("TOKEN_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("CALENDAR_STATE_SECRET", "state-secret")
	t.Setenv("CONFIRMATION_SECRET", "confirm-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Env)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
