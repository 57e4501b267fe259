// Package convert turns MediaWiki XML dumps into Parquet files. Each
// (source, target) pair is a job; Run drains the jobs with a fixed pool of
// workers, each of which streams its source through the bzip2 decoder and
// page reader into a columnar writer.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/zeebo/xxh3"

	"mwdump/internal/bitmap"
	"mwdump/internal/bz2"
	"mwdump/internal/columnar"
	"mwdump/internal/datasource"
	"mwdump/internal/datasource/httpds"
	"mwdump/internal/filetype"
	"mwdump/internal/mediawiki"
	"mwdump/internal/metrics"
	"mwdump/internal/storage"
)

// DefaultProgressEvery is how many pages pass between progress lines.
const DefaultProgressEvery = 10000

var (
	ErrNoSources     = errors.New("convert: no sources")
	ErrCountMismatch = errors.New("convert: source and target counts differ")
)

func countMismatch(sources, targets int) error {
	return fmt.Errorf("%w: %d sources, %d targets", ErrCountMismatch, sources, targets)
}

// Options configures a conversion run.
type Options struct {
	// Threads caps the worker count; 0 means one per CPU.
	Threads int
	// FileType forces the decode path. Unknown sniffs each source.
	FileType filetype.FileType
	Sink     columnar.Options
	// ProgressEvery logs a progress line every n pages; negative disables it.
	ProgressEvery int
	BufferSize    int
	// Client fetches http(s) sources. Nil builds a default client on demand.
	Client *httpds.Client
	// Manifest, when set, receives one record per finished job.
	Manifest storage.Repository
	// Namespaces, when set, restricts output to pages in these namespaces.
	Namespaces *bitmap.Bitmap
	// ErrorSamples is how many job and field error messages the summary keeps.
	ErrorSamples int
	Verbose      bool

	// exec replaces ConvertFile in tests.
	exec func(ctx context.Context, job Job, opts Options) (Result, error)
}

// Result describes one converted file.
type Result struct {
	Source      string
	Target      string
	FileType    filetype.FileType
	SourceBytes int64
	Fingerprint uint64 // xxh3 of the raw source bytes
	Pages       int64
	Rows        int64
	Skipped     int64 // pages outside Options.Namespaces
	FieldErrors int64
	Started     time.Time
	Duration    time.Duration

	fieldErrs []string
}

// Record converts r into a manifest record.
func (r Result) Record(err error) storage.Record {
	rec := storage.Record{
		Source:      r.Source,
		Target:      r.Target,
		FileType:    r.FileType.String(),
		SourceBytes: r.SourceBytes,
		Fingerprint: r.Fingerprint,
		Pages:       r.Pages,
		Rows:        r.Rows,
		FieldErrors: r.FieldErrors,
		Skipped:     r.Skipped,
		Status:      metrics.Status(err),
		Started:     r.Started,
		Duration:    r.Duration,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// ConvertFile converts job.Source into job.Target. Rows written before a
// syntax or decompression error are kept; the error is returned alongside
// the partial Result.
func ConvertFile(ctx context.Context, job Job, opts Options) (res Result, err error) {
	res = Result{Source: job.Source, Target: job.Target, Started: time.Now()}
	defer func() { res.Duration = time.Since(res.Started) }()

	rc, err := datasource.Resolve(job.Source, opts.Client).Open(ctx)
	if err != nil {
		return res, err
	}
	defer rc.Close()

	in, ft, err := detect(rc, opts.FileType)
	res.FileType = ft
	if err != nil {
		return res, fmt.Errorf("convert: %s: %w", job.Source, err)
	}

	hash := xxh3.New()
	raw := &countingReader{r: io.TeeReader(in, hash)}
	dec := bz2.NewReader(raw, ft.Compressed(), opts.BufferSize)

	samples := opts.ErrorSamples
	pages := mediawiki.NewPageReader(dec,
		mediawiki.WithBufferSize(opts.BufferSize),
		mediawiki.WithFieldErrorHandler(func(fe *mediawiki.FieldError) {
			res.FieldErrors++
			if len(res.fieldErrs) < samples {
				res.fieldErrs = append(res.fieldErrs, fmt.Sprintf("%s: %v", job.Source, fe))
			}
		}),
	)

	w, err := columnar.Create(job.Target, opts.Sink)
	if err != nil {
		return res, err
	}

	every := opts.ProgressEvery
	if every == 0 {
		every = DefaultProgressEvery
	}
	var writeErr error
	for pages.Next() {
		page := pages.Read()
		if opts.Namespaces != nil && !opts.Namespaces.Has(page.NS) {
			res.Skipped++
			continue
		}
		if _, writeErr = w.Write(&page); writeErr != nil {
			break
		}
		if every > 0 && w.Pages()%int64(every) == 0 {
			logProgress(job.Source, w.Pages(), res.Started)
		}
	}
	closeErr := w.Close()

	res.Pages, res.Rows = w.Pages(), w.Rows()
	res.SourceBytes = raw.n
	res.Fingerprint = hash.Sum64()

	if info, ok := pages.SiteInfo(); ok && opts.Verbose {
		log.Printf("convert: %s: site=%s db=%s namespaces=%d", job.Source, info.SiteName, info.DBName, len(info.Namespaces))
	}

	switch {
	case writeErr != nil:
		return res, writeErr
	case pages.Err() != nil:
		return res, fmt.Errorf("convert: %s: after %d pages: %w", job.Source, res.Pages, pages.Err())
	}
	return res, closeErr
}

// IsFilesystemError reports whether err came from opening, creating,
// reading or writing a local file rather than from the dump's content.
func IsFilesystemError(err error) bool {
	var (
		pathErr *fs.PathError
		linkErr *os.LinkError
		sysErr  *os.SyscallError
	)
	return errors.As(err, &pathErr) || errors.As(err, &linkErr) || errors.As(err, &sysErr)
}

// detect settles the file type of src. A forced type wins; otherwise the
// signature is sniffed, by seeking back when src can seek and by peeking
// through a buffer when it cannot.
func detect(src io.Reader, forced filetype.FileType) (io.Reader, filetype.FileType, error) {
	if forced != filetype.Unknown {
		return src, forced, nil
	}
	if rs, ok := src.(io.ReadSeeker); ok {
		ft, err := filetype.Guess(rs)
		return rs, ft, err
	}
	return filetype.Peek(src)
}

func logProgress(src string, pages int64, started time.Time) {
	elapsed := max(time.Since(started), time.Millisecond)
	rate := int64(float64(pages) / elapsed.Seconds())
	log.Printf("convert: %s: %s pages (%s pages/s)", src, humanize.Comma(pages), humanize.Comma(rate))
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
