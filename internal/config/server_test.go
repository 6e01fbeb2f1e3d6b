package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadServer_DefaultsAndFlags(t *testing.T) {
	cfg, err := LoadServer([]string{"--jwt-key", "k", "--limiter", "memory", "--access-ttl", "1h"})
	require.NoError(t, err)

	require.Equal(t, ":8443", cfg.Addr)
	require.Equal(t, "k", cfg.JWTKey)
	require.Equal(t, time.Hour, cfg.AccessTTL)
	require.Equal(t, StoragePostgres, cfg.Storage)
	require.Equal(t, LimiterMemory, cfg.LimiterKind)
	require.Equal(t, 5, cfg.Limiter.MaxFails)
	require.Equal(t, 15*time.Minute, cfg.Limiter.Window)
	require.Equal(t, "archives", cfg.S3.Prefix)
	require.Equal(t, 8<<20, cfg.MaxDocBytes)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadServer_Env(t *testing.T) {
	t.Setenv("FUEL_JWT_KEY", "from-env")
	t.Setenv("FUEL_STORAGE", "S3")
	t.Setenv("FUEL_S3_BUCKET", "fuel")
	t.Setenv("FUEL_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("FUEL_LIMITER_MAX_FAILS", "9")

	cfg, err := LoadServer(nil)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.JWTKey)
	require.Equal(t, StorageS3, cfg.Storage)
	require.Equal(t, "fuel", cfg.S3.Bucket)
	require.Equal(t, "http://minio:9000", cfg.S3.BaseEndpoint)
	require.Equal(t, 9, cfg.Limiter.MaxFails)
}

func TestLoadServer_FlagBeatsEnv(t *testing.T) {
	t.Setenv("FUEL_ADDR", ":1")
	cfg, err := LoadServer([]string{"--jwt-key", "k", "--addr", ":2"})
	require.NoError(t, err)
	require.Equal(t, ":2", cfg.Addr)
}

func TestLoadServer_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jwt_key: file-key
plaintext: true
log_level: debug
db:
  max_conns: 7
limiter:
  kind: memory
  block_for: 1m
`), 0o600))

	cfg, err := LoadServer([]string{"--config", path})
	require.NoError(t, err)
	require.Equal(t, "file-key", cfg.JWTKey)
	require.True(t, cfg.Plaintext)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, int32(7), cfg.DBMaxConns)
	require.Equal(t, LimiterMemory, cfg.LimiterKind)
	require.Equal(t, time.Minute, cfg.Limiter.BlockFor)
}

func TestLoadServer_Invalid(t *testing.T) {
	cases := map[string][]string{
		"missing key":     {},
		"unknown storage": {"--jwt-key", "k", "--storage", "ftp"},
		"s3 no bucket":    {"--jwt-key", "k", "--storage", "s3"},
		"unknown limiter": {"--jwt-key", "k", "--limiter", "redis"},
		"no tls":          {"--jwt-key", "k", "--tls-cert", ""},
		"bad level":       {"--jwt-key", "k", "--log-level", "loud"},
		"bad ttl":         {"--jwt-key", "k", "--access-ttl", "0s"},
		"unknown flag":    {"--nope"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadServer(args)
			require.Error(t, err)
		})
	}
}
