// Package metrics records conversion metrics through a pluggable backend.
//
// Callers use the Record helpers; which metric system receives the values
// is decided once at startup with SetBackend. Until then every call lands
// in a no-op backend, so instrumented code never has to check whether
// metrics are enabled.
package metrics

import "time"

// Metric names emitted by the conversion pipeline.
const (
	JobsTotal          = "mw_jobs_total"
	JobDurationSeconds = "mw_job_duration_seconds"
	RecordsTotal       = "mw_records_total"
)

// Record kinds counted under RecordsTotal.
const (
	KindPages       = "pages"
	KindRows        = "rows"
	KindFieldErrors = "field_errors"
	KindSkipped     = "skipped_pages"
	KindBytes       = "source_bytes"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is implemented by each metric system. Implementations must be safe
// for concurrent use; workers record from their own goroutines.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing
// backend. It is not safe to call while jobs are running.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// Status maps a job error to the status label value.
func Status(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

// RecordJob counts one finished conversion job and observes its duration.
func RecordJob(fileType string, err error, d time.Duration) {
	status := Status(err)
	backend.IncCounter(JobsTotal, 1, Labels{"status": status, "filetype": fileType})
	backend.ObserveHistogram(JobDurationSeconds, d.Seconds(), Labels{"status": status})
}

// RecordRecords adds delta to the counter for kind. Non-positive deltas are
// dropped.
func RecordRecords(kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{"kind": kind})
}
