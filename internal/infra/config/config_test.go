package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":9090"
auth:
  jwtSecret: file-secret
matching:
  highlightMinWords: 3
postgres:
  layout: vector
progress:
  ttl: 10m
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SUPABASE_JWT_SECRET", "env-secret")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("HTTP_RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	require.Equal(t, 3, cfg.Matching.HighlightMinWords)
	require.Equal(t, 0.4, cfg.Matching.HighlightMinSimilarity)
	require.Equal(t, "vector", cfg.Postgres.Layout)
	require.Equal(t, 10*time.Minute, cfg.Progress.TTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	require.False(t, cfg.HTTP.RateLimit.Enabled)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults with auth disabled", mutate: func(c *Config) { c.Auth.Disabled = true }, ok: true},
		{name: "missing jwt secret", mutate: func(c *Config) {}},
		{name: "bad layout", mutate: func(c *Config) { c.Auth.Disabled = true; c.Postgres.Layout = "columns" }},
		{name: "valkey queue without valkey", mutate: func(c *Config) { c.Auth.Disabled = true; c.Queue.Backend = "valkey" }},
		{name: "valkey enabled without addr", mutate: func(c *Config) { c.Auth.Disabled = true; c.Valkey.Enabled = true }},
		{name: "similarity out of range", mutate: func(c *Config) { c.Auth.Disabled = true; c.Matching.HighlightMinSimilarity = 2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestStorageEnabled(t *testing.T) {
	require.False(t, StorageConfig{}.Enabled())
	require.True(t, StorageConfig{Endpoint: "https://r2.example", Bucket: "b", AccessKey: "a", SecretKey: "s"}.Enabled())
}

func TestLoadUnvalidatedSkipsServerChecks(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("AUTH_DISABLED", "false")
	t.Setenv("SUPABASE_JWT_SECRET", "")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/jobfit")

	_, err := Load()
	require.Error(t, err)

	cfg, err := LoadUnvalidated()
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost/jobfit", cfg.Postgres.DSN)
}
