package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearDatabricksEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABRICKS_HOST", "DATABRICKS_TOKEN", "DATABRICKS_WAREHOUSE_ID", "GENIE_SPACE_ID",
		"DATABRICKS_WAIT_TIMEOUT", "DATABRICKS_POLL_INTERVAL", "DATABRICKS_POLL_MAX_ATTEMPTS",
		"DATABRICKS_HTTP_TIMEOUT", "DATABASE_URL", "META_DB_PATH", "LISTEN_ADDR", "ENV",
		"CORS_ALLOWED_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL", "LOG_FORMAT", "SEED_DEMO",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearDatabricksEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "genie_dashboard.sqlite", cfg.MetaDBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "30s", cfg.Databricks.WaitTimeout)
	assert.Equal(t, time.Second, cfg.Databricks.PollInterval)
	assert.Equal(t, 30, cfg.Databricks.PollMaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.Databricks.HTTPTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.InDelta(t, 50.0, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 100, cfg.RateLimitBurst)
	assert.False(t, cfg.UsePostgres())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadFromEnv_MissingDatabricksIsWarningNotError(t *testing.T) {
	clearDatabricksEnv(t)
	t.Setenv("DATABRICKS_HOST", "https://example.cloud.databricks.com/")
	t.Setenv("DATABRICKS_TOKEN", "dapi-test")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://example.cloud.databricks.com", cfg.Databricks.Host)
	assert.False(t, cfg.Databricks.HasStatementConfig())
	assert.False(t, cfg.Databricks.HasGenieConfig())
	assert.Equal(t, []string{"DATABRICKS_WAREHOUSE_ID"}, cfg.Databricks.MissingStatementSettings())
	assert.Equal(t, []string{"GENIE_SPACE_ID"}, cfg.Databricks.MissingGenieSettings())
	assert.Len(t, cfg.Warnings, 2)
}

func TestLoadFromEnv_FullyConfigured(t *testing.T) {
	clearDatabricksEnv(t)
	t.Setenv("DATABRICKS_HOST", "https://example.cloud.databricks.com")
	t.Setenv("DATABRICKS_TOKEN", "dapi-test")
	t.Setenv("DATABRICKS_WAREHOUSE_ID", "wh-1")
	t.Setenv("GENIE_SPACE_ID", "space-1")
	t.Setenv("DATABRICKS_POLL_INTERVAL", "250ms")
	t.Setenv("DATABRICKS_POLL_MAX_ATTEMPTS", "5")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/widgets")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.Databricks.HasStatementConfig())
	assert.True(t, cfg.Databricks.HasGenieConfig())
	assert.Equal(t, 250*time.Millisecond, cfg.Databricks.PollInterval)
	assert.Equal(t, 5, cfg.Databricks.PollMaxAttempts)
	assert.True(t, cfg.UsePostgres())
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad poll interval", key: "DATABRICKS_POLL_INTERVAL", value: "soon"},
		{name: "zero poll interval", key: "DATABRICKS_POLL_INTERVAL", value: "0s"},
		{name: "bad attempts", key: "DATABRICKS_POLL_MAX_ATTEMPTS", value: "many"},
		{name: "zero attempts", key: "DATABRICKS_POLL_MAX_ATTEMPTS", value: "0"},
		{name: "bad rps", key: "RATE_LIMIT_RPS", value: "fast"},
		{name: "bad seed flag", key: "SEED_DEMO", value: "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearDatabricksEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadFromEnv_SeedDemo(t *testing.T) {
	clearDatabricksEnv(t)
	t.Setenv("SEED_DEMO", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.SeedDemo)
}

func TestLoadFromEnv_ProductionRejectsWildcardCORS(t *testing.T) {
	clearDatabricksEnv(t)
	t.Setenv("ENV", "production")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS wildcard")

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://dash.example.com, ,https://admin.example.com")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://dash.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestSlogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		assert.Equal(t, tt.want, cfg.SlogLevel(), tt.level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nGENIE_TEST_A=from-file\nGENIE_TEST_B=\"quoted\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("GENIE_TEST_A", "from-env")
	t.Setenv("GENIE_TEST_B", "")
	require.NoError(t, os.Unsetenv("GENIE_TEST_B"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv("GENIE_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("GENIE_TEST_B"))
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	t.Parallel()

	err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}
