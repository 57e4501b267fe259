// Package postgres stores the conversion manifest in PostgreSQL through a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mwdump/internal/storage"
)

// Repository is a PostgreSQL manifest repository.
type Repository struct {
	pool   *pgxpool.Pool
	table  string
	insert string
}

func init() {
	storage.Register("postgres", New)
}

// New connects a pool to cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", describe(err))
	}
	table := cfg.Table
	if table == "" {
		table = storage.DefaultTable
	}
	return newRepository(pool, table), nil
}

func newRepository(pool *pgxpool.Pool, table string) *Repository {
	return &Repository{pool: pool, table: pgFQN(table), insert: insertSQL(pgFQN(table))}
}

func insertSQL(table string) string {
	ph := make([]string, len(storage.Columns))
	for i := range ph {
		ph[i] = "$" + strconv.Itoa(i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(storage.Columns, ", "), strings.Join(ph, ", "))
}

func createSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
	id            BIGSERIAL PRIMARY KEY,
	source        TEXT        NOT NULL,
	target        TEXT        NOT NULL,
	file_type     TEXT        NOT NULL,
	source_bytes  BIGINT      NOT NULL,
	fingerprint   CHAR(16)    NOT NULL,
	pages         BIGINT      NOT NULL,
	rows_written  BIGINT      NOT NULL,
	field_errors  BIGINT      NOT NULL,
	skipped_pages BIGINT      NOT NULL,
	status        TEXT        NOT NULL,
	error_message TEXT        NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT      NOT NULL
)`
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createSQL(r.table)); err != nil {
		return fmt.Errorf("postgres: create %s: %w", r.table, describe(err))
	}
	return nil
}

func (r *Repository) Insert(ctx context.Context, rec storage.Record) error {
	if _, err := r.pool.Exec(ctx, r.insert, rec.Values()...); err != nil {
		return fmt.Errorf("postgres: insert %s: %w", rec.Source, describe(err))
	}
	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// describe adds the server's SQLSTATE and detail to err when it has any.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s (SQLSTATE %s): %w", pgErr.Message, pgErr.Code, err)
	}
	return err
}

// pgIdent quotes a single identifier.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.runs".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}
