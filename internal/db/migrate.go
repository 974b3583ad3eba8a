package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// Dialect names a supported widget store backend.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// RunMigrations applies every pending migration for the dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) error {
	var gooseDialect goose.Dialect
	switch dialect {
	case DialectSQLite:
		gooseDialect = goose.DialectSQLite3
	case DialectPostgres:
		gooseDialect = goose.DialectPostgres
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", dialect, err)
	}

	provider, err := goose.NewProvider(gooseDialect, db, sub)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	if logger != nil {
		for _, r := range results {
			logger.Info("applied migration",
				"dialect", dialect, "version", r.Source.Version, "duration", r.Duration)
		}
	}
	return nil
}
