// Package storage keeps the conversion manifest: one record per finished
// job, written to whichever SQL backend the run is configured with.
//
// Backends live in subpackages and register a Factory for their kind in
// init; import mwdump/internal/storage/all to enable every built-in one.
package storage

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTable is the manifest table used when Config.Table is empty.
const DefaultTable = "mw_conversions"

// Record describes one conversion job.
type Record struct {
	Source      string
	Target      string
	FileType    string
	SourceBytes int64
	Fingerprint uint64 // xxh3 of the raw source bytes
	Pages       int64
	Rows        int64
	FieldErrors int64
	Skipped     int64  // pages filtered out by namespace
	Status      string // "ok" or "failed"
	Error       string
	Started     time.Time
	Duration    time.Duration
}

// Columns is the manifest column order used by every backend.
var Columns = []string{
	"source", "target", "file_type", "source_bytes", "fingerprint",
	"pages", "rows_written", "field_errors", "skipped_pages", "status", "error_message",
	"started_at", "duration_ms",
}

// Values returns r in Columns order. The fingerprint is rendered as 16 hex
// digits since not every backend has an unsigned 64-bit type.
func (r Record) Values() []any {
	return []any{
		r.Source, r.Target, r.FileType, r.SourceBytes, fmt.Sprintf("%016x", r.Fingerprint),
		r.Pages, r.Rows, r.FieldErrors, r.Skipped, r.Status, r.Error,
		r.Started.UTC(), r.Duration.Milliseconds(),
	}
}

// Repository stores manifest records. Implementations must be safe for
// concurrent use by the conversion workers.
type Repository interface {
	// EnsureSchema creates the manifest table if it does not exist.
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, rec Record) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Kind  string // sqlite, postgres, mysql, mssql
	DSN   string
	Table string
}

// Factory opens a Repository for a backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind, replacing any previous
// registration. It is called from backend init functions.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// Kinds lists the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open validates cfg, opens the backend for cfg.Kind and makes sure the
// manifest table exists.
func Open(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if err := ValidateTable(cfg.Table); err != nil {
		return nil, err
	}
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	repo, err := f(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

var tableRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidateTable accepts plain or schema-qualified identifiers only, since
// table names are interpolated into SQL.
func ValidateTable(name string) error {
	if !tableRE.MatchString(name) {
		return fmt.Errorf("storage: invalid table name %q", name)
	}
	return nil
}
