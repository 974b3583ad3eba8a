package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"genie-dashboard/internal/domain"
)

var _ domain.WidgetRepository = (*PGWidgetRepo)(nil)

// PGWidgetRepo stores widgets in Postgres with JSONB visualization and
// layout columns.
type PGWidgetRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPGWidgetRepo creates a PGWidgetRepo.
func NewPGWidgetRepo(pool *pgxpool.Pool) *PGWidgetRepo {
	return &PGWidgetRepo{pool: pool, now: time.Now}
}

func (r *PGWidgetRepo) Create(ctx context.Context, w *domain.Widget) (*domain.Widget, error) {
	vis, layout, err := encodeJSONColumns(w)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO widgets (`+widgetColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+widgetColumns,
		w.ID, w.DashboardID, w.DatabricksQueryID, vis, layout, w.CreatedAt.UTC(), w.UpdatedAt.UTC())
	out, err := scanPGWidget(row)
	if err != nil {
		return nil, mapDBError(err, w.ID)
	}
	return out, nil
}

func (r *PGWidgetRepo) List(ctx context.Context) ([]domain.Widget, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+widgetColumns+` FROM widgets ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	defer rows.Close()

	widgets := make([]domain.Widget, 0)
	for rows.Next() {
		w, err := scanPGWidget(rows)
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

func (r *PGWidgetRepo) GetByID(ctx context.Context, id string) (*domain.Widget, error) {
	w, err := scanPGWidget(r.pool.QueryRow(ctx, `SELECT `+widgetColumns+` FROM widgets WHERE id = $1`, id))
	if err != nil {
		return nil, mapDBError(err, id)
	}
	return w, nil
}

// Update locks the row for the read-modify-write.
func (r *PGWidgetRepo) Update(ctx context.Context, id string, patch domain.WidgetPatch) (*domain.Widget, error) {
	var out *domain.Widget
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		w, err := scanPGWidget(tx.QueryRow(ctx,
			`SELECT `+widgetColumns+` FROM widgets WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return mapDBError(err, id)
		}
		patch.Apply(w, r.now().UTC().Truncate(time.Microsecond))

		vis, layout, err := encodeJSONColumns(w)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE widgets SET visualization = $1, layout = $2, updated_at = $3 WHERE id = $4`,
			vis, layout, w.UpdatedAt, id); err != nil {
			return fmt.Errorf("update widget %s: %w", id, err)
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PGWidgetRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM widgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete widget %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("widget %q not found", id)
	}
	return nil
}

func scanPGWidget(row pgx.Row) (*domain.Widget, error) {
	var (
		w           domain.Widget
		vis, layout []byte
	)
	if err := row.Scan(&w.ID, &w.DashboardID, &w.DatabricksQueryID, &vis, &layout, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSONColumns(&w, vis, layout); err != nil {
		return nil, err
	}
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	return &w, nil
}
