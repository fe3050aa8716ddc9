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
port = 8080
log_level = "trace"
log_to_stdout = true
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "blogbox"
redis_host = "localhost"
redis_port = "6379"
secure_cookies = false
cors_allowed_origins = ["http://localhost:5173"]

[production]
host = "0.0.0.0"
port = 8080
log_level = "debug"
logs_path = "/var/log/blogbox/service.log"
postgres_host = "db.internal"
postgres_port = "5432"
postgres_db_name = "blogbox"
redis_host = "redis.internal"
redis_port = "6379"
session_ttl_hours = 24
secure_cookies = true
login_rate_limit_allowed_per_min = 10
cors_allowed_origins = ["https://blogbox.example.com"]
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigContent), 0o600))
	return path
}

func TestLoad_development(t *testing.T) {
	cfg, err := Load("development", writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "blogbox", cfg.PostgresDBName)
	assert.False(t, cfg.SecureCookies)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CorsAllowedOrigins)

	// defaults kick in when not set
	assert.Equal(t, 24, cfg.SessionTTLHours)
	assert.Equal(t, 15, cfg.LoginRateLimitAllowedPerMin)
}

func TestLoad_production(t *testing.T) {
	cfg, err := Load("prod", writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.True(t, cfg.SecureCookies)
	assert.Equal(t, 10, cfg.LoginRateLimitAllowedPerMin)
	assert.Equal(t, "/var/log/blogbox/service.log", cfg.LogsPath)
}

func TestLoad_unknownEnv(t *testing.T) {
	_, err := Load("staging", writeTestConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown env")
}
