// Package repository implements domain.WidgetRepository on SQLite and
// Postgres.
package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"genie-dashboard/internal/domain"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

func mapDBError(err error, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound("widget %q not found", id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.ErrConflict("widget %q already exists", id)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrConflict("widget %q already exists", id)
	}
	return err
}

// encodeJSONColumns serializes the structured widget columns.
func encodeJSONColumns(w *domain.Widget) (vis, layout []byte, err error) {
	vis, err = json.Marshal(w.Visualization)
	if err != nil {
		return nil, nil, fmt.Errorf("encode visualization: %w", err)
	}
	layout, err = json.Marshal(w.Layout)
	if err != nil {
		return nil, nil, fmt.Errorf("encode layout: %w", err)
	}
	return vis, layout, nil
}

func decodeJSONColumns(w *domain.Widget, vis, layout []byte) error {
	if err := json.Unmarshal(vis, &w.Visualization); err != nil {
		return fmt.Errorf("decode visualization of widget %s: %w", w.ID, err)
	}
	if err := json.Unmarshal(layout, &w.Layout); err != nil {
		return fmt.Errorf("decode layout of widget %s: %w", w.ID, err)
	}
	return nil
}
