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

const minimalConfig = `
database:
  postgres:
    host: localhost
    database: startup_intake
    user: ${INTAKE_TEST_DB_USER}
storage:
  s3:
    bucket: intake-docs
    region: ap-south-1
workers:
  check-document-completeness:
    enabled: true
`

func TestLoadFromFile_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("INTAKE_TEST_DB_USER", "intake")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "intake", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxFileBytes)
	assert.Equal(t, "startup-application-review", cfg.Camunda.ReviewProcessID)
	assert.Equal(t, "startup-intake", cfg.Observability.ServiceName)
	assert.Equal(t, "ap-south-1", cfg.Notifications.SNS.Region)

	wc := GetWorkerConfig(cfg, "check-document-completeness")
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 3, wc.MaxRetries)
	assert.True(t, IsWorkerEnabled(cfg, "get-startup-application"))
}

func TestLoadFromFile_OverrideEmptyFromEnv(t *testing.T) {
	t.Setenv("DB_USER", "from-env")
	t.Setenv("AWS_S3_BUCKET", "env-bucket")

	cfg, err := LoadFromFile(writeConfig(t, `
database:
  postgres:
    host: localhost
    database: startup_intake
storage:
  s3:
    region: ap-south-1
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Database.Postgres.User)
	assert.Equal(t, "env-bucket", cfg.Storage.S3.Bucket)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Database.Postgres = PostgresConfig{Host: "h", Database: "d", User: "u"}
		cfg.Storage.S3 = S3Config{Bucket: "b", Region: "r"}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing host", func(c *Config) { c.Database.Postgres.Host = "" }, "database.postgres.host"},
		{"missing bucket", func(c *Config) { c.Storage.S3.Bucket = "" }, "storage.s3.bucket"},
		{"cache without redis", func(c *Config) { c.Cache.Enabled = true }, "database.redis.address"},
		{"camunda without broker", func(c *Config) { c.Camunda.Enabled = true }, "camunda.broker_address"},
		{"sns without topic", func(c *Config) { c.Notifications.SNS.Enabled = true }, "topic_arn"},
		{"file larger than request", func(c *Config) { c.Upload.MaxFileBytes = c.Upload.MaxRequestBytes + 1 }, "max_file_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
