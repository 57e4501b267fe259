// Package columnar writes decoded pages to Parquet, one row per revision.
package columnar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/parquet-go/parquet-go/compress/brotli"
	"github.com/parquet-go/parquet-go/compress/gzip"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"mwdump/internal/mediawiki"
)

const (
	// CreatedBy is recorded in the footer of every file.
	CreatedBy = "mediawiki2parquet"

	DefaultCodec        = "zstd"
	DefaultLevel        = 9
	DefaultRowGroupRows = 1000
)

var (
	ErrUnknownCodec = errors.New("columnar: unknown compression codec")
	ErrClosed       = errors.New("columnar: writer is closed")
)

// Options configures a Writer. The zero value selects zstd at level 9.
type Options struct {
	Codec        string // zstd, snappy, gzip, brotli, lz4, none
	Level        int    // codec specific; 0 selects the default
	RowGroupRows int64
	NFC          bool // normalise title and redirect to NFC
}

// Codec resolves a codec name and level to a parquet codec.
func Codec(name string, level int) (compress.Codec, error) {
	switch strings.ToLower(name) {
	case "", "zstd":
		if level == 0 {
			level = DefaultLevel
		}
		return &zstd.Codec{Level: zstdLevel(level), Concurrency: 1}, nil
	case "snappy":
		return &parquet.Snappy, nil
	case "gzip":
		if level == 0 {
			return &parquet.Gzip, nil
		}
		if level < 1 || level > 9 {
			return nil, fmt.Errorf("columnar: gzip level %d out of range 1-9", level)
		}
		return &gzip.Codec{Level: level}, nil
	case "brotli":
		if level == 0 {
			return &parquet.Brotli, nil
		}
		if level < 0 || level > 11 {
			return nil, fmt.Errorf("columnar: brotli quality %d out of range 0-11", level)
		}
		return &brotli.Codec{Quality: level, LGWin: brotli.DefaultLGWin}, nil
	case "lz4":
		return &parquet.Lz4Raw, nil
	case "none", "uncompressed":
		return &parquet.Uncompressed, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

// zstdLevel buckets a zstd command-line level into the encoder speeds the
// codec exposes.
func zstdLevel(level int) zstd.Level {
	switch {
	case level <= 2:
		return zstd.SpeedFastest
	case level <= 6:
		return zstd.SpeedDefault
	case level <= 12:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// Writer appends flattened pages to a Parquet file.
type Writer struct {
	w      *parquet.GenericWriter[Row]
	closer io.Closer
	nfc    bool
	buf    []Row
	pages  int64
	rows   int64
	closed bool
}

// NewWriter writes Parquet to out. Closing the Writer does not close out.
func NewWriter(out io.Writer, opts Options) (*Writer, error) {
	codec, err := Codec(opts.Codec, opts.Level)
	if err != nil {
		return nil, err
	}
	rg := opts.RowGroupRows
	if rg <= 0 {
		rg = DefaultRowGroupRows
	}
	w := parquet.NewGenericWriter[Row](out,
		parquet.Compression(codec),
		parquet.MaxRowsPerRowGroup(rg),
		parquet.CreatedBy(CreatedBy, "", ""),
	)
	return &Writer{w: w, nfc: opts.NFC}, nil
}

// Create truncates or creates path and returns a Writer over it that closes
// the file on Close.
func Create(path string, opts Options) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("columnar: create %s: %w", path, err)
	}
	w, err := NewWriter(f, opts)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	w.closer = f
	return w, nil
}

// Write flattens p and appends its rows. It returns the number of rows written.
func (w *Writer) Write(p *mediawiki.Page) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	w.buf = Flatten(w.buf[:0], p, w.nfc)
	w.pages++
	if len(w.buf) == 0 {
		return 0, nil
	}
	n, err := w.w.Write(w.buf)
	w.rows += int64(n)
	clear(w.buf) // drop references to revision text
	if err != nil {
		return n, fmt.Errorf("columnar: write page %d: %w", p.ID, err)
	}
	return n, nil
}

// Pages returns the number of pages written.
func (w *Writer) Pages() int64 { return w.pages }

// Rows returns the number of rows written.
func (w *Writer) Rows() int64 { return w.rows }

// Close flushes the footer and closes the underlying file, if owned.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.w.Close()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("columnar: close: %w", err)
	}
	return nil
}
