package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigContent = `
[development]
host = "localhost"
port = 9000
log_level = "trace"
log_to_stdout = true
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "firstaccess"
max_entries = 50
closing_hour = 17
login_rate_limit_allowed_per_min = 15

[production]
host = ""
port = 9000
log_level = "debug"
logs_path = "/var/log/firstaccess/service.log"
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "firstaccess"
redis_sessions = true
max_entries = 50
closing_hour = 17
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigContent), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTestConfig(t)

	cfg, err := Load("development", path)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 50, cfg.MaxEntries)
	assert.Equal(t, 17, cfg.ClosingHour)
	assert.False(t, cfg.ForceOpen)
	assert.False(t, cfg.RedisSessions)
	assert.Equal(t, "development", cfg.Environment)

	cfg, err = Load("prod", path)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.RedisSessions)
	assert.Equal(t, "prod", cfg.Environment)
}

func TestLoad_UnknownEnv(t *testing.T) {
	path := writeTestConfig(t)

	cfg, err := Load("staging", path)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "unknown env")
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load("development", "/invalid/path/config.toml")
	require.Error(t, err)
	assert.Nil(t, cfg)
}
