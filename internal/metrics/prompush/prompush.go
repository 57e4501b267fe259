// Package prompush pushes conversion metrics to a Prometheus Pushgateway.
//
// A converter run is a batch job with no long-lived HTTP endpoint to scrape,
// so metrics are collected in a private registry and pushed once on Flush.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"mwdump/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	jobs        *prometheus.CounterVec // mw_jobs_total
	jobDuration *prometheus.SummaryVec // mw_job_duration_seconds
	records     *prometheus.CounterVec // mw_records_total
}

// NewBackend constructs a Prometheus Pushgateway backend. An empty jobName
// defaults to "mw".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "mw"
	}

	reg := prometheus.NewRegistry()
	jobs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.JobsTotal,
			Help: "Conversion jobs finished, by status and input file type.",
		},
		[]string{"status", "filetype"},
	)
	jobDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.JobDurationSeconds,
			Help:       "Wall time of conversion jobs in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"status"},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Records handled, by kind (pages, rows, field_errors, source_bytes).",
		},
		[]string{"kind"},
	)

	for name, c := range map[string]prometheus.Collector{
		"jobs counter":     jobs,
		"duration summary": jobDuration,
		"records counter":  records,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:  gatewayURL,
		jobName:     jobName,
		reg:         reg,
		jobs:        jobs,
		jobDuration: jobDuration,
		records:     records,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.JobsTotal:
		if b.jobs != nil {
			b.jobs.WithLabelValues(labels["status"], labels["filetype"]).Add(delta)
		}
	case metrics.RecordsTotal:
		if b.records != nil {
			b.records.WithLabelValues(labels["kind"]).Add(delta)
		}
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.JobDurationSeconds || b.jobDuration == nil {
		return
	}
	b.jobDuration.WithLabelValues(labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
