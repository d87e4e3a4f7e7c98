package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CANVASSER_DATABASE_DSN", "postgres://env")
	t.Setenv("CANVASSER_S3_BUCKET", "env-bucket")
	t.Setenv("CANVASSER_ACCESS_TOKEN_TTL", "30m")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "postgres://env", cfg.DatabaseDSN)
	assert.Equal(t, "env-bucket", cfg.S3Bucket)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
}

func TestParseEnv_BadDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CANVASSER_ACCESS_TOKEN_TTL", "forever")
	require.Error(t, parseEnv(&Config{}))
}

func TestParseEnv_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CANVASSER_SECRET_KEY=dotenv-secret\n"), 0o600))
	t.Chdir(dir)
	t.Cleanup(func() { _ = os.Unsetenv("CANVASSER_SECRET_KEY") })

	cfg := &Config{}
	require.NoError(t, parseEnv(cfg))
	assert.Equal(t, "dotenv-secret", cfg.SecretKey)
}
