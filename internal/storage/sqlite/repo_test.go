package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mwdump/internal/storage"
)

func TestManifestRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "manifest.db")

	repo, err := storage.Open(ctx, storage.Config{Kind: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := storage.Record{
				Source: "dump.xml.bz2", Target: "dump.part-0.parquet", FileType: "bzip2",
				SourceBytes: 967, Fingerprint: 0xdeadbeef, Pages: 3, Rows: int64(4 + i),
				Status: "ok", Started: started, Duration: 1500 * time.Millisecond,
			}
			if err := repo.Insert(ctx, rec); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	db := repo.(*storage.SQLRepository).DB()
	var n, rows int64
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*), SUM(rows_written) FROM "+storage.DefaultTable).Scan(&n, &rows); err != nil {
		t.Fatal(err)
	}
	if n != 4 || rows != 4+5+6+7 {
		t.Fatalf("count=%d sum(rows)=%d", n, rows)
	}
	var fp, status string
	var ms int64
	if err := db.QueryRowContext(ctx,
		"SELECT fingerprint, status, duration_ms FROM "+storage.DefaultTable+" LIMIT 1").Scan(&fp, &status, &ms); err != nil {
		t.Fatal(err)
	}
	if fp != "00000000deadbeef" || status != "ok" || ms != 1500 {
		t.Fatalf("fingerprint=%s status=%s duration=%d", fp, status, ms)
	}
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo, err := New(ctx, storage.Config{DSN: ":memory:", Table: "runs"})
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()
	for i := 0; i < 2; i++ {
		if err := repo.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema #%d: %v", i, err)
		}
	}
	if err := repo.Insert(ctx, storage.Record{Source: "a", Status: "failed", Error: "boom"}); err != nil {
		t.Fatal(err)
	}
}

func TestNewRejectsEmptyDSN(t *testing.T) {
	t.Parallel()
	if _, err := New(context.Background(), storage.Config{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestOpenRejectsBadTable(t *testing.T) {
	t.Parallel()
	_, err := storage.Open(context.Background(), storage.Config{Kind: "sqlite", DSN: ":memory:", Table: "x; DROP TABLE y"})
	if err == nil {
		t.Fatal("expected invalid table error")
	}
}
