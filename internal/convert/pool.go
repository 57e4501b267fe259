package convert

import (
	"context"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"mwdump/internal/metrics"
)

// DefaultErrorSamples is how many error messages a Summary keeps when
// Options.ErrorSamples is zero.
const DefaultErrorSamples = 10

// Summary totals a run.
type Summary struct {
	Jobs        int64
	Failed      int64
	FSFailed    int64 // failed jobs whose error was a filesystem one
	Pages       int64
	Rows        int64
	Skipped     int64
	FieldErrors int64
	Workers     int
	Elapsed     time.Duration

	// Errors holds the first job errors, FieldErrorSamples the first field
	// conversion failures.
	Errors            []string
	FieldErrorSamples []string
}

// PoolSize is the number of workers used for jobs jobs: threads, or the CPU
// count when threads is not positive, capped at the job count.
func PoolSize(threads, jobs int) int {
	n := threads
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(min(n, jobs), 0)
}

type counters struct {
	jobs, failed, fsFailed, pages, rows, skipped, fieldErrs atomic.Int64
}

// errAgg keeps the first limit messages and counts the rest.
type errAgg struct {
	mu    sync.Mutex
	limit int
	count int
	first []string
}

func newErrAgg(limit int) *errAgg { return &errAgg{limit: limit} }

func (a *errAgg) add(msg ...string) {
	a.mu.Lock()
	for _, m := range msg {
		if a.count < a.limit {
			a.first = append(a.first, m)
		}
		a.count++
	}
	a.mu.Unlock()
}

// Run converts every job with a pool of PoolSize workers. The calling
// goroutine is one of them. A failed job is logged and counted and the
// worker moves on; cancelling ctx stops workers from taking new jobs but
// lets the ones in flight finish. The only error Run returns is ctx's.
func Run(ctx context.Context, jobs []Job, opts Options) (Summary, error) {
	if len(jobs) == 0 {
		return Summary{}, ErrNoSources
	}
	if opts.exec == nil {
		opts.exec = ConvertFile
	}
	samples := opts.ErrorSamples
	if samples == 0 {
		samples = DefaultErrorSamples
	}
	opts.ErrorSamples = samples

	var (
		q       = NewQueue(jobs)
		c       counters
		jobErrs = newErrAgg(samples)
		fldErrs = newErrAgg(samples)
		start   = time.Now()
		size    = PoolSize(opts.Threads, len(jobs))
	)

	work := func(id int) error {
		log.Printf("[%d] worker started", id)
		defer log.Printf("[%d] worker exited", id)
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			job, ok := q.Dequeue()
			if !ok {
				return nil
			}
			log.Printf("[%d] processing %s", id, job.Source)
			res, err := opts.exec(ctx, job, opts)

			c.jobs.Add(1)
			c.pages.Add(res.Pages)
			c.rows.Add(res.Rows)
			c.skipped.Add(res.Skipped)
			c.fieldErrs.Add(res.FieldErrors)
			fldErrs.add(res.fieldErrs...)
			if err != nil {
				c.failed.Add(1)
				if IsFilesystemError(err) {
					c.fsFailed.Add(1)
				}
				jobErrs.add(err.Error())
				log.Printf("[%d] %s failed: %v", id, job.Source, err)
			}
			log.Printf("[%d] %s pages processed", id, humanize.Comma(res.Pages))

			metrics.RecordJob(res.FileType.String(), err, res.Duration)
			metrics.RecordRecords(metrics.KindPages, res.Pages)
			metrics.RecordRecords(metrics.KindRows, res.Rows)
			metrics.RecordRecords(metrics.KindSkipped, res.Skipped)
			metrics.RecordRecords(metrics.KindFieldErrors, res.FieldErrors)
			metrics.RecordRecords(metrics.KindBytes, res.SourceBytes)

			if opts.Manifest != nil {
				if merr := opts.Manifest.Insert(context.WithoutCancel(ctx), res.Record(err)); merr != nil {
					log.Printf("[%d] manifest: %v", id, merr)
				}
			}
		}
	}

	var g errgroup.Group
	for id := 1; id < size; id++ {
		g.Go(func() error { return work(id) })
	}
	err := work(0)
	if werr := g.Wait(); err == nil {
		err = werr
	}

	return Summary{
		Jobs:              c.jobs.Load(),
		Failed:            c.failed.Load(),
		FSFailed:          c.fsFailed.Load(),
		Pages:             c.pages.Load(),
		Rows:              c.rows.Load(),
		Skipped:           c.skipped.Load(),
		FieldErrors:       c.fieldErrs.Load(),
		Workers:           size,
		Elapsed:           time.Since(start),
		Errors:            jobErrs.first,
		FieldErrorSamples: fldErrs.first,
	}, err
}

// LogSummary writes s in the run's log format.
func LogSummary(s Summary) {
	log.Printf("summary: jobs=%d failed=%d fs_failed=%d pages=%s rows=%s skipped=%s field_errors=%d workers=%d elapsed=%s",
		s.Jobs, s.Failed, s.FSFailed, humanize.Comma(s.Pages), humanize.Comma(s.Rows), humanize.Comma(s.Skipped),
		s.FieldErrors, s.Workers, s.Elapsed.Truncate(time.Millisecond))
	if len(s.Errors) > 0 {
		log.Printf("job errors: %d (showing first %d)", s.Failed, len(s.Errors))
		for i, msg := range s.Errors {
			log.Printf("  #%03d: %s", i+1, msg)
		}
	}
	if len(s.FieldErrorSamples) > 0 {
		log.Printf("field errors: %d (showing first %d)", s.FieldErrors, len(s.FieldErrorSamples))
		for i, msg := range s.FieldErrorSamples {
			log.Printf("  #%03d: %s", i+1, msg)
		}
	}
}
