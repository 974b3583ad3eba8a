// Package db opens the widget store (SQLite or Postgres) and applies its
// migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// Mode selects how a SQLite pool is tuned.
type Mode string

// SQLite pool modes.
const (
	ModeWrite Mode = "write" // single connection, immediate transactions
	ModeRead  Mode = "read"  // several connections, no write lock
)

const (
	defaultBusyTimeout = "5000" // ms
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"
	defaultReadConns   = 4
)

// OpenSQLite opens a *sql.DB pool for the given SQLite file.
//
// ModeWrite pools hold one connection and begin transactions with
// BEGIN IMMEDIATE so read-modify-write updates cannot interleave.
// ModeRead pools hold maxOpen connections (0 means 4).
func OpenSQLite(path string, mode Mode, maxOpen int) (*sql.DB, error) {
	if mode != ModeRead && mode != ModeWrite {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be %q or %q", mode, ModeRead, ModeWrite)
	}

	db, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	if mode == ModeWrite {
		maxOpen = 1
	} else if maxOpen <= 0 {
		maxOpen = defaultReadConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}

	return db, nil
}

// OpenSQLitePair opens a write pool and a read pool on the same file.
func OpenSQLitePair(path string, readMaxOpen int) (writeDB, readDB *sql.DB, err error) {
	writeDB, err = OpenSQLite(path, ModeWrite, 0)
	if err != nil {
		return nil, nil, err
	}

	readDB, err = OpenSQLite(path, ModeRead, readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, err
	}

	return writeDB, readDB, nil
}

func buildDSN(path string, mode Mode) string {
	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_synchronous", defaultSynchronous)
	params.Set("_foreign_keys", "on")
	if mode == ModeWrite {
		params.Set("_txlock", "immediate")
	}
	return "file:" + path + "?" + params.Encode()
}
