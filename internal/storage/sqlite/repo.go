// Package sqlite stores the conversion manifest in SQLite through the
// pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mwdump/internal/storage"
)

// Dialect is the SQLite flavour of the manifest table.
var Dialect = storage.Dialect{
	Name:        "sqlite",
	Placeholder: storage.QuestionMark,
	CreateTable: func(table string) string {
		return `CREATE TABLE IF NOT EXISTS ` + table + ` (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	source        TEXT    NOT NULL,
	target        TEXT    NOT NULL,
	file_type     TEXT    NOT NULL,
	source_bytes  INTEGER NOT NULL,
	fingerprint   TEXT    NOT NULL,
	pages         INTEGER NOT NULL,
	rows_written  INTEGER NOT NULL,
	field_errors  INTEGER NOT NULL,
	skipped_pages INTEGER NOT NULL,
	status        TEXT    NOT NULL,
	error_message TEXT    NOT NULL,
	started_at    TIMESTAMP NOT NULL,
	duration_ms   INTEGER NOT NULL
)`
	},
}

func init() {
	storage.Register("sqlite", New)
}

// New opens the SQLite database at cfg.DSN, e.g. "manifest.db" or
// ":memory:". The pool is limited to one connection: SQLite allows a single
// writer and an in-memory database is private to its connection.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;")

	table := cfg.Table
	if table == "" {
		table = storage.DefaultTable
	}
	return storage.NewSQLRepository(db, Dialect, table), nil
}
