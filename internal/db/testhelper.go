package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

// TestStore is a migrated SQLite widget store living in t.TempDir().
type TestStore struct {
	Write *sql.DB
	Read  *sql.DB
	Path  string
}

// RawWidget is a widgets row written as-is, so tests can plant rows the
// repository would refuse to produce. Empty fields get usable defaults.
type RawWidget struct {
	ID            string
	DashboardID   string
	SQL           string
	Visualization string
	Layout        string
	CreatedAt     string
}

// NewTestStore opens a write/read pool pair, applies the sqlite migrations
// and registers cleanup.
func NewTestStore(t testing.TB) *TestStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "widgets.sqlite")
	writeDB, readDB, err := OpenSQLitePair(path, defaultReadConns)
	if err != nil {
		t.Fatalf("open widget store: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(context.Background(), writeDB, DialectSQLite, nil); err != nil {
		t.Fatalf("migrate widget store: %v", err)
	}
	return &TestStore{Write: writeDB, Read: readDB, Path: path}
}

// InsertRawWidget writes w straight into the widgets table.
func (s *TestStore) InsertRawWidget(t testing.TB, w RawWidget) {
	t.Helper()

	if w.DashboardID == "" {
		w.DashboardID = "default"
	}
	if w.SQL == "" {
		w.SQL = "SELECT 1"
	}
	if w.Visualization == "" {
		w.Visualization = `{"type":"table"}`
	}
	if w.Layout == "" {
		w.Layout = `{"x":0,"y":0,"w":6,"h":4}`
	}
	if w.CreatedAt == "" {
		w.CreatedAt = "2026-01-01T00:00:00.000000000Z"
	}

	_, err := s.Write.Exec(`INSERT INTO widgets
		(id, dashboard_id, databricks_query_id, visualization, layout, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.DashboardID, w.SQL, w.Visualization, w.Layout, w.CreatedAt, w.CreatedAt)
	if err != nil {
		t.Fatalf("insert widget %s: %v", w.ID, err)
	}
}

// WidgetCount reads the number of stored widgets through the read pool.
func (s *TestStore) WidgetCount(t testing.TB) int {
	t.Helper()

	var n int
	if err := s.Read.QueryRow("SELECT count(*) FROM widgets").Scan(&n); err != nil {
		t.Fatalf("count widgets: %v", err)
	}
	return n
}
