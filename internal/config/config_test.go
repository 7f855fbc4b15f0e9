package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndPlatformEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("CRON_SECRET", "cron-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/society")
	t.Setenv("ENCRYPTION_KEY", "abc123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "cron-secret", cfg.Sync.Secret)
	assert.Equal(t, "postgres://localhost/society", cfg.Database.DSN)
	assert.Equal(t, "abc123", cfg.Crypto.Key)
	assert.Equal(t, 5*time.Minute, cfg.Sync.OrderInterval)
	assert.Equal(t, time.Minute, cfg.Sync.MemberInterval)
	assert.Equal(t, "0 */5 * * * *", cfg.Tasks.OrderSpec)
	assert.False(t, cfg.Tasks.MemberEnabled)

	// jwt.secret 未设置
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
	assert.NotContains(t, err.Error(), "CRON_SECRET")
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prod.yaml")
	content := `
server:
  port: "9090"
sync:
  secret: from-file
  member_interval: 2m
jwt:
  secret: jwt-secret
tasks:
  member_enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("APP_ENV", "prod")
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DATABASE_URL", "postgres://db/society")
	t.Setenv("ENCRYPTION_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Sync.Secret)
	assert.Equal(t, 2*time.Minute, cfg.Sync.MemberInterval)
	assert.Equal(t, "jwt-secret", cfg.JWT.Secret)
	assert.True(t, cfg.Tasks.MemberEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ListsAllMissing(t *testing.T) {
	err := (&Config{}).Validate()
	require.Error(t, err)
	for _, field := range []string{"DATABASE_URL", "ENCRYPTION_KEY", "CRON_SECRET", "jwt.secret"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	assert.Error(t, err)
}
