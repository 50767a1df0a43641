package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv clears a variable for the test while keeping t.Setenv's restore
// behavior.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("CM_DATABASE_URL", "postgres://localhost/cm_test")
	t.Setenv("CM_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("CM_SERVER_PORT", "9999")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/cm_test", cfg.Database.URL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "9999", cfg.Server.Port)

	// Defaults survive where nothing overrides them.
	assert.Equal(t, 9, cfg.Slots.OpenHour)
	assert.Equal(t, 18, cfg.Slots.CloseHour)
	assert.Equal(t, 30, cfg.Slots.IncrementMins)
	assert.Equal(t, "*/15 * * * *", cfg.Sync.Cron)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  url: postgres://localhost/from_file
auth:
  jwt_secret: file-secret
slots:
  open_hour: 8
  close_hour: 20
`), 0o600))

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("CM_DATABASE_URL", "postgres://localhost/from_env")
	unsetenv(t, "CM_AUTH_JWT_SECRET")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	// Env wins over the file; untouched file values stick.
	assert.Equal(t, "postgres://localhost/from_env", cfg.Database.URL)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 8, cfg.Slots.OpenHour)
	assert.Equal(t, 20, cfg.Slots.CloseHour)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "nope.yaml"))
	unsetenv(t, "CM_DATABASE_URL")
	unsetenv(t, "CM_AUTH_JWT_SECRET")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RejectsBadSlotWindow(t *testing.T) {
	t.Setenv("CM_DATABASE_URL", "postgres://localhost/cm_test")
	t.Setenv("CM_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("CM_SLOTS_OPEN_HOUR", "20")
	t.Setenv("CM_SLOTS_CLOSE_HOUR", "9")

	_, err := LoadConfig()
	assert.Error(t, err)
}
