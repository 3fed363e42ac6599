package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_OfflineDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  redis:
    address: localhost:6379
sync:
  offline_only: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "jobtracker", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 500, cfg.Sync.FetchLimit)
	assert.Equal(t, "job_changes", cfg.Sync.RealtimeChannel)
	assert.Equal(t, "jobtracker:state", cfg.Sync.SnapshotKey)
	assert.Equal(t, 15*time.Second, GetDuration(cfg.Sync.ProbeInterval))
	assert.Equal(t, "jobs", cfg.Search.Elasticsearch.Index)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("JT_TEST_PG_PASSWORD", "s3cret")
	path := writeConfig(t, `
database:
  redis:
    address: localhost:6379
  postgres:
    host: db
    database: jobs
    user: tracker
    password: ${JT_TEST_PG_PASSWORD}
auth:
  keycloak:
    url: http://kc
    realm: jobs
    client_id: tracker
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "password=s3cret")
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "sslmode=disable")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing redis",
			mutate:  func(c *Config) { c.Database.Redis.Address = "" },
			wantErr: "database.redis.address",
		},
		{
			name:    "missing postgres host when online",
			mutate:  func(c *Config) { c.Sync.OfflineOnly = false; c.Database.Postgres.Host = "" },
			wantErr: "database.postgres.host",
		},
		{
			name:    "search enabled without addresses",
			mutate:  func(c *Config) { c.Search.Elasticsearch.Enabled = true },
			wantErr: "search.elasticsearch.addresses",
		},
		{
			name:    "sns enabled without topic",
			mutate:  func(c *Config) { c.Notifications.SNS.Enabled = true },
			wantErr: "topic_arn",
		},
		{
			name:   "offline only skips remote checks",
			mutate: func(c *Config) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Database.Redis.Address = "localhost:6379"
			cfg.Sync.OfflineOnly = true
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
