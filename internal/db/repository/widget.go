package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"genie-dashboard/internal/domain"
)

var _ domain.WidgetRepository = (*WidgetRepo)(nil)

// sqliteTimeLayout is fixed-width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const widgetColumns = `id, dashboard_id, databricks_query_id, visualization, layout, created_at, updated_at`

// WidgetRepo stores widgets in SQLite. Writes go through the single
// connection write pool; reads use the read pool.
type WidgetRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
	now     func() time.Time
}

// NewWidgetRepo creates a WidgetRepo. readDB may be nil to read through writeDB.
func NewWidgetRepo(writeDB, readDB *sql.DB) *WidgetRepo {
	if readDB == nil {
		readDB = writeDB
	}
	return &WidgetRepo{writeDB: writeDB, readDB: readDB, now: time.Now}
}

func (r *WidgetRepo) Create(ctx context.Context, w *domain.Widget) (*domain.Widget, error) {
	vis, layout, err := encodeJSONColumns(w)
	if err != nil {
		return nil, err
	}
	_, err = r.writeDB.ExecContext(ctx,
		`INSERT INTO widgets (`+widgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.DashboardID, w.DatabricksQueryID, string(vis), string(layout),
		formatTime(w.CreatedAt), formatTime(w.UpdatedAt))
	if err != nil {
		return nil, mapDBError(err, w.ID)
	}
	return r.GetByID(ctx, w.ID)
}

func (r *WidgetRepo) List(ctx context.Context) ([]domain.Widget, error) {
	rows, err := r.readDB.QueryContext(ctx,
		`SELECT `+widgetColumns+` FROM widgets ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	widgets := make([]domain.Widget, 0)
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	return widgets, nil
}

func (r *WidgetRepo) GetByID(ctx context.Context, id string) (*domain.Widget, error) {
	return r.get(ctx, r.readDB, id)
}

// Update applies the patch inside an immediate transaction so concurrent
// patches to different field groups do not overwrite each other.
func (r *WidgetRepo) Update(ctx context.Context, id string, patch domain.WidgetPatch) (*domain.Widget, error) {
	tx, err := r.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	w, err := r.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(w, r.now().UTC())

	vis, layout, err := encodeJSONColumns(w)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE widgets SET visualization = ?, layout = ?, updated_at = ? WHERE id = ?`,
		string(vis), string(layout), formatTime(w.UpdatedAt), id); err != nil {
		return nil, fmt.Errorf("update widget %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return w, nil
}

func (r *WidgetRepo) Delete(ctx context.Context, id string) error {
	res, err := r.writeDB.ExecContext(ctx, `DELETE FROM widgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete widget %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete widget %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound("widget %q not found", id)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *WidgetRepo) get(ctx context.Context, q queryRower, id string) (*domain.Widget, error) {
	row := q.QueryRowContext(ctx, `SELECT `+widgetColumns+` FROM widgets WHERE id = ?`, id)
	w, err := scanWidget(row)
	if err != nil {
		return nil, mapDBError(err, id)
	}
	return w, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWidget(s scanner) (*domain.Widget, error) {
	var (
		w                    domain.Widget
		vis, layout          string
		createdAt, updatedAt string
	)
	if err := s.Scan(&w.ID, &w.DashboardID, &w.DatabricksQueryID, &vis, &layout, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSONColumns(&w, []byte(vis), []byte(layout)); err != nil {
		return nil, err
	}
	var err error
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
