package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  addr: ":9090"
  allowed_origins: ["https://records.example"]
database:
  host: db.internal
  port: 6543
redis:
  url: redis://cache:6379/0
  ttl: 30s
lookup:
  backend: database
  timeout: 500ms
  concurrency: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("RECORDSEARCH_DATABASE_USER", "search")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://records.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "search", cfg.Database.User)
	assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, BackendDatabase, cfg.Lookup.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.Lookup.Timeout)
	assert.Equal(t, 4, cfg.Lookup.Concurrency)
}

func TestValidateRejectsGraphQLWithoutEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Lookup.Backend = BackendGraphQL
	assert.Error(t, cfg.Validate())

	cfg.Lookup.Endpoint = "https://records.example/graphql"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Lookup.Backend = "ldap"
	assert.Error(t, cfg.Validate())
}
