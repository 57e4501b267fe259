// Package mysql stores the conversion manifest in MySQL or MariaDB.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"mwdump/internal/storage"
)

// Dialect is the MySQL flavour of the manifest table.
var Dialect = storage.Dialect{
	Name:        "mysql",
	Placeholder: storage.QuestionMark,
	CreateTable: func(table string) string {
		return `CREATE TABLE IF NOT EXISTS ` + table + ` (
	id            BIGINT AUTO_INCREMENT PRIMARY KEY,
	source        VARCHAR(1024) NOT NULL,
	target        VARCHAR(1024) NOT NULL,
	file_type     VARCHAR(16)   NOT NULL,
	source_bytes  BIGINT        NOT NULL,
	fingerprint   CHAR(16)      NOT NULL,
	pages         BIGINT        NOT NULL,
	rows_written  BIGINT        NOT NULL,
	field_errors  BIGINT        NOT NULL,
	skipped_pages BIGINT        NOT NULL,
	status        VARCHAR(16)   NOT NULL,
	error_message TEXT          NOT NULL,
	started_at    DATETIME(3)   NOT NULL,
	duration_ms   BIGINT        NOT NULL
)`
	},
}

func init() {
	storage.Register("mysql", New)
}

// ParseDSN checks a go-sql-driver DSN such as
// "user:pass@tcp(127.0.0.1:3306)/wiki" and makes sure DATETIME values are
// scanned as time.Time.
func ParseDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("mysql: dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return cfg.FormatDSN(), nil
}

// New connects to cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	dsn, err := ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	table := cfg.Table
	if table == "" {
		table = storage.DefaultTable
	}
	return storage.NewSQLRepository(db, Dialect, table), nil
}
