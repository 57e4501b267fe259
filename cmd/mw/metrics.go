package main

import (
	"log"
	"sort"

	"mwdump/internal/config"
	"mwdump/internal/metrics"
	"mwdump/internal/metrics/datadog"
	"mwdump/internal/metrics/prompush"
)

const (
	defaultPushgatewayURL = "http://localhost:9091"
	defaultDatadogAddr    = "127.0.0.1:8125"
	defaultJob            = "mw"
)

// setupMetrics installs the configured backend and returns the function
// that flushes it at exit, or nil when metrics are disabled.
func setupMetrics(r config.Run, verbose bool) func() {
	m := r.Metrics
	var b metrics.Backend
	switch m.Backend {
	case "pushgateway":
		gwURL := m.PushgatewayURL
		if gwURL == "" {
			gwURL = defaultPushgatewayURL
		}
		job := r.Job
		if job == "" {
			job = defaultJob
		}
		pb, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return nil
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, m.Backend, job)
		b = pb

	case "datadog":
		addr := m.DatadogAddr
		if addr == "" {
			addr = defaultDatadogAddr
		}
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  m.Options.String("namespace", "mwdump."),
			GlobalTags: globalTags(r),
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return nil
		}
		log.Printf("metrics: addr=%v, backend=%v", addr, m.Backend)
		b = db

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", m.Backend)
		}
		return nil

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", m.Backend)
		return nil
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

// globalTags is the job tag plus metrics.options.tags as sorted "k:v" pairs.
func globalTags(r config.Run) []string {
	job := r.Job
	if job == "" {
		job = defaultJob
	}
	tags := []string{"job:" + job}
	extra := r.Metrics.Options.StringMap("tags")
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tags = append(tags, k+":"+extra[k])
	}
	return tags
}
