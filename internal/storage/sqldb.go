package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Dialect holds what differs between database/sql backends.
type Dialect struct {
	Name string
	// Placeholder renders the i-th (1-based) bind parameter.
	Placeholder func(i int) string
	// CreateTable renders the DDL for the manifest table. It must be a no-op
	// when the table already exists.
	CreateTable func(table string) string
}

// QuestionMark is the placeholder style of SQLite and MySQL.
func QuestionMark(int) string { return "?" }

// SQLRepository is a Repository over database/sql, shared by the backends
// whose drivers plug into it.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	table   string
	insert  string
}

// NewSQLRepository wraps an open pool. The repository owns db from here on.
func NewSQLRepository(db *sql.DB, d Dialect, table string) *SQLRepository {
	ph := make([]string, len(Columns))
	for i := range ph {
		ph[i] = d.Placeholder(i + 1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(Columns, ", "), strings.Join(ph, ", "))
	return &SQLRepository{db: db, dialect: d, table: table, insert: insert}
}

// DB exposes the underlying pool, mainly for tests.
func (r *SQLRepository) DB() *sql.DB { return r.db }

func (r *SQLRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.CreateTable(r.table)); err != nil {
		return fmt.Errorf("%s: create %s: %w", r.dialect.Name, r.table, err)
	}
	return nil
}

func (r *SQLRepository) Insert(ctx context.Context, rec Record) error {
	if _, err := r.db.ExecContext(ctx, r.insert, rec.Values()...); err != nil {
		return fmt.Errorf("%s: insert %s: %w", r.dialect.Name, rec.Source, err)
	}
	return nil
}

func (r *SQLRepository) Close() error { return r.db.Close() }
