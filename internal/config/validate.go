package config

import (
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"slices"
	"strings"

	"mwdump/internal/bitmap"
	"mwdump/internal/columnar"
	"mwdump/internal/filetype"
	"mwdump/internal/storage"
)

// IssueSeverity is the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the
// config, e.g. "output.codec".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ManifestKinds are the manifest backends the binary ships with.
var ManifestKinds = []string{"sqlite", "postgres", "mysql", "mssql"}

// ValidateRun checks a fully merged Run (config, env, flags and arguments)
// without touching the filesystem or network.
func ValidateRun(r Run) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, a ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if strings.TrimSpace(r.Job) == "" {
		add(SeverityWarning, "job", "job is empty; metrics will be labelled %q", "mw")
	}

	switch {
	case r.Source.Path == "" && r.Source.List == "":
		add(SeverityError, "source", "a source path or list file is required")
	case r.Source.Path != "" && r.Source.List != "":
		add(SeverityError, "source", "source.path and source.list are mutually exclusive")
	}
	if strings.TrimSpace(r.Output.Path) == "" {
		add(SeverityError, "output.path", "output path must not be empty")
	}

	if r.FileType != "" {
		if _, err := filetype.Parse(r.FileType); err != nil {
			add(SeverityError, "filetype", "%v", err)
		}
	}

	if _, err := bitmap.Parse(r.Namespaces); err != nil {
		add(SeverityError, "namespaces", "%v", err)
	}

	issues = append(issues, validateOutput(r.Output)...)
	issues = append(issues, validateRuntime(r.Runtime)...)
	issues = append(issues, validateMetrics(r.Metrics)...)
	issues = append(issues, validateManifest(r.Manifest)...)
	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue
	if _, err := columnar.Codec(o.Codec, o.Level); err != nil {
		path := "output.level"
		if errors.Is(err, columnar.ErrUnknownCodec) {
			path = "output.codec"
		}
		issues = append(issues, Issue{SeverityError, path, err.Error()})
	}
	if o.RowGroupRows < 0 {
		issues = append(issues, Issue{SeverityError, "output.row_group_rows", "must not be negative"})
	}
	return issues
}

func validateRuntime(rt Runtime) []Issue {
	var issues []Issue
	if rt.Threads < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.threads", "must not be negative (0 = one per CPU)"})
	} else if cpus := runtime.NumCPU(); rt.Threads > 4*cpus {
		issues = append(issues, Issue{SeverityWarning, "runtime.threads",
			fmt.Sprintf("%d threads on %d CPUs; conversion is CPU bound", rt.Threads, cpus)})
	}
	if rt.BufferSize < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.buffer_size", "must not be negative"})
	} else if rt.BufferSize > 0 && rt.BufferSize < 4096 {
		issues = append(issues, Issue{SeverityWarning, "runtime.buffer_size", "buffers under 4KiB slow decoding down"})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			break // default applies
		}
		u, err := url.Parse(m.PushgatewayURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url",
				fmt.Sprintf("invalid URL %q", m.PushgatewayURL)})
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{SeverityWarning, "metrics.datadog_addr", "empty; using 127.0.0.1:8125"})
		}
	default:
		issues = append(issues, Issue{SeverityWarning, "metrics.backend",
			fmt.Sprintf("unknown backend %q; metrics will be disabled", m.Backend)})
	}
	return issues
}

func validateManifest(m Manifest) []Issue {
	if m.DSN == "" {
		return nil
	}
	var issues []Issue
	if m.Kind != "" && !slices.Contains(ManifestKinds, m.Kind) {
		issues = append(issues, Issue{SeverityError, "manifest.kind",
			fmt.Sprintf("unknown manifest kind %q (want one of %s)", m.Kind, strings.Join(ManifestKinds, ", "))})
	}
	if m.Table != "" {
		if err := storage.ValidateTable(m.Table); err != nil {
			issues = append(issues, Issue{SeverityError, "manifest.table", err.Error()})
		}
	}
	return issues
}
