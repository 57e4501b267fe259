package convert

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/zeebo/xxh3"

	"mwdump/internal/bitmap"
	"mwdump/internal/bz2"
	"mwdump/internal/columnar"
	"mwdump/internal/filetype"
	"mwdump/internal/storage"
)

const (
	sampleXML = "../mediawiki/testdata/sample.xml"
	sampleBZ2 = "../bz2/testdata/sample.xml.bz2"
	truncBZ2  = "../bz2/testdata/truncated.xml.bz2"
)

func TestConvertFile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		source string
		forced filetype.FileType
		want   filetype.FileType
	}{
		{"bzip2 sniffed", sampleBZ2, filetype.Unknown, filetype.BZip2},
		{"xml sniffed", sampleXML, filetype.Unknown, filetype.XML},
		{"xml forced", sampleXML, filetype.XML, filetype.XML},
		{"bzip2 forced", sampleBZ2, filetype.BZip2, filetype.BZip2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw, err := os.ReadFile(tt.source)
			if err != nil {
				t.Fatal(err)
			}
			target := filepath.Join(t.TempDir(), "out.parquet")
			res, err := ConvertFile(context.Background(),
				Job{Source: tt.source, Target: target},
				Options{FileType: tt.forced, ProgressEvery: 1})
			if err != nil {
				t.Fatalf("ConvertFile: %v", err)
			}
			if res.FileType != tt.want {
				t.Fatalf("file type = %v, want %v", res.FileType, tt.want)
			}
			if res.Pages != 3 || res.Rows != 4 || res.FieldErrors != 0 {
				t.Fatalf("pages=%d rows=%d field_errors=%d, want 3, 4, 0", res.Pages, res.Rows, res.FieldErrors)
			}
			if res.SourceBytes != int64(len(raw)) {
				t.Fatalf("source bytes = %d, want %d", res.SourceBytes, len(raw))
			}
			if res.Fingerprint != xxh3.Hash(raw) {
				t.Fatalf("fingerprint = %x, want %x", res.Fingerprint, xxh3.Hash(raw))
			}

			rows, err := parquet.ReadFile[columnar.Row](target)
			if err != nil {
				t.Fatal(err)
			}
			wantIDs := []uint64{100, 101, 200, 300}
			if len(rows) != len(wantIDs) {
				t.Fatalf("read %d rows, want %d", len(rows), len(wantIDs))
			}
			for i, id := range wantIDs {
				if rows[i].RevID != id {
					t.Fatalf("row %d rev_id = %d, want %d", i, rows[i].RevID, id)
				}
			}
			if rows[0].Title != "April" || rows[2].Redirect == nil || *rows[2].Redirect != "April" {
				t.Fatalf("unexpected page columns: %+v / %+v", rows[0], rows[2])
			}
		})
	}
}

func TestConvertFileKeepsPartialOutput(t *testing.T) {
	t.Parallel()
	target := filepath.Join(t.TempDir(), "out.parquet")
	res, err := ConvertFile(context.Background(), Job{Source: truncBZ2, Target: target}, Options{})
	if !errors.Is(err, bz2.ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
	if res.FileType != filetype.BZip2 {
		t.Fatalf("file type = %v", res.FileType)
	}
	rows, rerr := parquet.ReadFile[columnar.Row](target)
	if rerr != nil {
		t.Fatalf("partial output unreadable: %v", rerr)
	}
	if int64(len(rows)) != res.Rows {
		t.Fatalf("file has %d rows, result says %d", len(rows), res.Rows)
	}
	if rec := res.Record(err); rec.Status != "failed" || rec.Error == "" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestConvertFileFieldErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.xml")
	doc := `<mediawiki><page><title>T</title><ns>zero</ns><id>1</id>` +
		`<revision><id>2</id><timestamp>yesterday</timestamp><model>m</model><format>f</format><text>x</text><sha1>s</sha1></revision>` +
		`</page></mediawiki>`
	if err := os.WriteFile(src, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := ConvertFile(context.Background(),
		Job{Source: src, Target: filepath.Join(dir, "bad.parquet")},
		Options{ErrorSamples: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pages != 1 || res.Rows != 1 || res.FieldErrors != 2 {
		t.Fatalf("pages=%d rows=%d field_errors=%d, want 1, 1, 2", res.Pages, res.Rows, res.FieldErrors)
	}
	if len(res.fieldErrs) != 1 {
		t.Fatalf("kept %d samples, want 1", len(res.fieldErrs))
	}
}

func TestConvertFileMissingSource(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target := filepath.Join(dir, "out.parquet")
	_, err := ConvertFile(context.Background(),
		Job{Source: filepath.Join(dir, "missing.xml"), Target: target}, Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
	if _, err := os.Stat(target); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("target created for a missing source")
	}
}

// onlyReader hides Seek so detect has to peek.
type onlyReader struct{ io.Reader }

func TestDetect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		src    io.Reader
		forced filetype.FileType
		want   filetype.FileType
		body   string
	}{
		{"seekable bzip2", bytes.NewReader([]byte("BZh91AY")), filetype.Unknown, filetype.BZip2, "BZh91AY"},
		{"stream bzip2", onlyReader{bytes.NewReader([]byte("BZh91AY"))}, filetype.Unknown, filetype.BZip2, "BZh91AY"},
		{"stream xml", onlyReader{bytes.NewReader([]byte("<mediawiki/>"))}, filetype.Unknown, filetype.XML, "<mediawiki/>"},
		{"stream empty", onlyReader{bytes.NewReader(nil)}, filetype.Unknown, filetype.XML, ""},
		{"stream short", onlyReader{bytes.NewReader([]byte("BZ"))}, filetype.Unknown, filetype.XML, "BZ"},
		{"forced", onlyReader{bytes.NewReader([]byte("BZh"))}, filetype.XML, filetype.XML, "BZh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, ft, err := detect(tt.src, tt.forced)
			if err != nil {
				t.Fatal(err)
			}
			if ft != tt.want {
				t.Fatalf("type = %v, want %v", ft, tt.want)
			}
			body, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}
			if string(body) != tt.body {
				t.Fatalf("sniffing consumed input: got %q, want %q", body, tt.body)
			}
		})
	}

	broken := errors.New("disk gone")
	if _, ft, err := detect(onlyReader{&failReader{err: broken}}, filetype.Unknown); !errors.Is(err, broken) || ft != filetype.Unknown {
		t.Fatalf("detect on failing reader = %v, %v", ft, err)
	}
}

type failReader struct{ err error }

func (f *failReader) Read([]byte) (int, error) { return 0, f.err }

type memManifest struct {
	mu   sync.Mutex
	recs []storage.Record
}

func (m *memManifest) EnsureSchema(context.Context) error { return nil }
func (m *memManifest) Close() error                       { return nil }
func (m *memManifest) Insert(_ context.Context, r storage.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, r)
	return nil
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()
	out := t.TempDir()
	sources := []string{sampleXML, sampleBZ2, truncBZ2}
	jobs, err := Jobs(sources, MakeTargets(sources, out))
	if err != nil {
		t.Fatal(err)
	}
	manifest := &memManifest{}
	sum, err := Run(context.Background(), jobs, Options{Threads: 2, Manifest: manifest})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Jobs != 3 || sum.Failed != 1 || sum.FSFailed != 0 {
		t.Fatalf("summary = %+v, want 3 jobs with 1 decode failure", sum)
	}
	if sum.Pages < 6 {
		t.Fatalf("pages = %d, want at least the 6 of the two complete samples", sum.Pages)
	}
	for _, name := range []string{"sample.part-0.parquet", "sample.part-1.parquet", "truncated.part-0.parquet"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("missing output: %v", err)
		}
	}
	if len(manifest.recs) != 3 {
		t.Fatalf("manifest has %d records, want 3", len(manifest.recs))
	}
	statuses := map[string]string{}
	for _, r := range manifest.recs {
		statuses[filepath.Base(r.Source)] = r.Status
	}
	if statuses["truncated.xml.bz2"] != "failed" || statuses["sample.xml"] != "ok" || statuses["sample.xml.bz2"] != "ok" {
		t.Fatalf("statuses = %v", statuses)
	}
}

func TestConvertFileNamespaceFilter(t *testing.T) {
	t.Parallel()
	target := filepath.Join(t.TempDir(), "files.parquet")
	res, err := ConvertFile(context.Background(), Job{Source: sampleXML, Target: target},
		Options{Namespaces: bitmap.Of(6)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pages != 1 || res.Rows != 1 || res.Skipped != 2 {
		t.Fatalf("pages=%d rows=%d skipped=%d, want 1, 1, 2", res.Pages, res.Rows, res.Skipped)
	}
	rows, err := parquet.ReadFile[columnar.Row](target)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Title != "File:Logo.png" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestIsFilesystemError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, missing := ConvertFile(context.Background(),
		Job{Source: filepath.Join(dir, "nope.xml"), Target: filepath.Join(dir, "a.parquet")}, Options{})
	_, noDir := ConvertFile(context.Background(),
		Job{Source: sampleXML, Target: filepath.Join(dir, "no", "such", "dir", "a.parquet")}, Options{})
	_, isDir := ConvertFile(context.Background(), Job{Source: sampleXML, Target: dir}, Options{})
	_, corrupt := ConvertFile(context.Background(),
		Job{Source: truncBZ2, Target: filepath.Join(dir, "t.parquet")}, Options{})

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"missing source", missing, true},
		{"missing target directory", noDir, true},
		{"target is a directory", isDir, true},
		{"truncated stream", corrupt, false},
		{"plain error", errors.New("x"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		if tt.want && tt.err == nil {
			t.Fatalf("%s: conversion did not fail", tt.name)
		}
		if got := IsFilesystemError(tt.err); got != tt.want {
			t.Errorf("%s: IsFilesystemError(%v) = %v, want %v", tt.name, tt.err, got, tt.want)
		}
	}
}
