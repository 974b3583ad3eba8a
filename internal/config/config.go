// Package config handles application configuration and environment loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabricksConfig holds the upstream workspace settings. Any field may be
// empty; the services fall back to canned demo responses when the fields
// they need are missing.
type DatabricksConfig struct {
	Host        string // workspace URL, e.g. https://adb-123.azuredatabricks.net
	Token       string // personal access token, sent as a bearer token
	WarehouseID string // SQL warehouse for statement execution
	SpaceID     string // Genie space for conversations

	WaitTimeout     string        // server-side wait hint for statement submission (default "30s")
	PollInterval    time.Duration // delay between statement status polls (default 1s)
	PollMaxAttempts int           // status polls before giving up (default 30)
	HTTPTimeout     time.Duration // per-request client timeout (default 60s)
}

// MissingStatementSettings lists the env vars needed for statement execution
// that are not set.
func (d *DatabricksConfig) MissingStatementSettings() []string {
	return missing(map[string]string{
		"DATABRICKS_HOST":         d.Host,
		"DATABRICKS_TOKEN":        d.Token,
		"DATABRICKS_WAREHOUSE_ID": d.WarehouseID,
	})
}

// MissingGenieSettings lists the env vars needed for Genie conversations
// that are not set.
func (d *DatabricksConfig) MissingGenieSettings() []string {
	return missing(map[string]string{
		"DATABRICKS_HOST":  d.Host,
		"DATABRICKS_TOKEN": d.Token,
		"GENIE_SPACE_ID":   d.SpaceID,
	})
}

// HasStatementConfig returns true if statement execution can reach Databricks.
func (d *DatabricksConfig) HasStatementConfig() bool {
	return len(d.MissingStatementSettings()) == 0
}

// HasGenieConfig returns true if conversations can reach Databricks.
func (d *DatabricksConfig) HasGenieConfig() bool {
	return len(d.MissingGenieSettings()) == 0
}

func missing(vals map[string]string) []string {
	var out []string
	for _, key := range []string{"DATABRICKS_HOST", "DATABRICKS_TOKEN", "DATABRICKS_WAREHOUSE_ID", "GENIE_SPACE_ID"} {
		v, ok := vals[key]
		if ok && strings.TrimSpace(v) == "" {
			out = append(out, key)
		}
	}
	return out
}

// Config holds the configuration for the HTTP API and its upstreams.
type Config struct {
	Databricks DatabricksConfig

	DatabaseURL string // postgres DSN; when empty the SQLite store at MetaDBPath is used
	MetaDBPath  string // path to the SQLite widget store (default "genie_dashboard.sqlite")
	ListenAddr  string // HTTP listen address (default ":8080")
	LogLevel    string // log level: debug, info, warn, error (default "info")
	LogFormat   string // "text" (default) or "json"
	Env         string // environment: "development" (default) or "production"
	SeedDemo    bool   // lock a demo widget into an empty store when statements run on demo data

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 50)
	RateLimitBurst int     // burst capacity (default 100)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// UsePostgres returns true when widgets are stored in Postgres.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// LoadFromEnv loads configuration from environment variables.
// Databricks variables are optional: the app starts without them and serves
// demo data.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Databricks: DatabricksConfig{
			Host:        strings.TrimRight(strings.TrimSpace(os.Getenv("DATABRICKS_HOST")), "/"),
			Token:       os.Getenv("DATABRICKS_TOKEN"),
			WarehouseID: os.Getenv("DATABRICKS_WAREHOUSE_ID"),
			SpaceID:     os.Getenv("GENIE_SPACE_ID"),
			WaitTimeout: os.Getenv("DATABRICKS_WAIT_TIMEOUT"),
		},
		DatabaseURL: os.Getenv("DATABASE_URL"),
		MetaDBPath:  os.Getenv("META_DB_PATH"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   os.Getenv("LOG_FORMAT"),
		Env:         os.Getenv("ENV"),
	}

	var err error
	if cfg.Databricks.PollInterval, err = parseDurationEnv("DATABRICKS_POLL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.Databricks.HTTPTimeout, err = parseDurationEnv("DATABRICKS_HTTP_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.Databricks.PollMaxAttempts, err = parseIntEnv("DATABRICKS_POLL_MAX_ATTEMPTS", 30); err != nil {
		return nil, err
	}
	if cfg.Databricks.PollMaxAttempts < 1 {
		return nil, fmt.Errorf("DATABRICKS_POLL_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.Databricks.PollInterval <= 0 {
		return nil, fmt.Errorf("DATABRICKS_POLL_INTERVAL must be positive")
	}

	if v := strings.TrimSpace(os.Getenv("SEED_DEMO")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("SEED_DEMO: %w", err)
		}
		cfg.SeedDemo = b
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = f
	}
	if cfg.RateLimitBurst, err = parseIntEnv("RATE_LIMIT_BURST", 0); err != nil {
		return nil, err
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Defaults
	if cfg.Databricks.WaitTimeout == "" {
		cfg.Databricks.WaitTimeout = "30s"
	}
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "genie_dashboard.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 50
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 100
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if m := cfg.Databricks.MissingStatementSettings(); len(m) > 0 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("statement execution not configured (missing %s): saved queries return demo data", strings.Join(m, ", ")))
	}
	if m := cfg.Databricks.MissingGenieSettings(); len(m) > 0 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("genie not configured (missing %s): questions return demo answers", strings.Join(m, ", ")))
	}

	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseDurationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, defaultVal int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
