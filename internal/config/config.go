// Package config defines the JSON run configuration for mw convert.
//
// A config file is optional. Its values act as defaults that environment
// variables and then command-line flags override:
//
//	{
//	  "job": "enwiki",
//	  "filetype": "bzip2",
//	  "namespaces": "0,14",
//	  "output":   { "codec": "zstd", "level": 9, "row_group_rows": 1000, "nfc": true },
//	  "runtime":  { "threads": 8, "progress_every": 10000 },
//	  "metrics":  { "backend": "datadog", "datadog_addr": "127.0.0.1:8125",
//	                "options": { "namespace": "mwdump.", "tags": { "env": "prod" } } },
//	  "manifest": { "kind": "sqlite", "dsn": "conversions.db" },
//	  "http":     { "options": { "max_retries": 5, "timeout_seconds": 0 } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Run is the top-level object of a run config file.
type Run struct {
	// Job names the run in metrics; defaults to "mw".
	Job string `json:"job"`

	Source Source `json:"source"`
	Output Output `json:"output"`

	// FileType forces "bzip2" or "xml" for every source; empty sniffs.
	FileType string `json:"filetype"`

	// Namespaces restricts output to pages in these namespaces, e.g. "0,14".
	// Empty converts every page.
	Namespaces string `json:"namespaces"`

	Runtime  Runtime  `json:"runtime"`
	Metrics  Metrics  `json:"metrics"`
	Manifest Manifest `json:"manifest"`
	HTTP     HTTP     `json:"http"`
}

// Source is where dumps are read from: a file or directory, or a list file
// with one path or URL per line. Exactly one must be set once flags and
// arguments are merged in.
type Source struct {
	Path string `json:"path"`
	List string `json:"list"`
}

// Output describes the Parquet files written.
type Output struct {
	// Path is the output file for a single source, otherwise a directory.
	Path         string `json:"path"`
	Codec        string `json:"codec"`
	Level        int    `json:"level"`
	RowGroupRows int64  `json:"row_group_rows"`
	NFC          bool   `json:"nfc"`
}

// Runtime controls the worker pool.
type Runtime struct {
	Threads       int `json:"threads"` // 0 = one per CPU
	ProgressEvery int `json:"progress_every"`
	BufferSize    int `json:"buffer_size"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend        string `json:"backend"` // none, pushgateway, datadog
	PushgatewayURL string `json:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr"`

	// Options carries backend extras: "namespace" (string) and "tags"
	// (object) for datadog.
	Options Options `json:"options"`
}

// Manifest configures the conversion manifest database. An empty DSN
// disables it.
type Manifest struct {
	Kind  string `json:"kind"` // sqlite (default), postgres, mysql, mssql
	DSN   string `json:"dsn"`
	Table string `json:"table"`
}

// HTTP tunes the client used for http(s) sources. Known option keys:
// timeout_seconds, max_retries, user_agent, insecure_skip_verify.
type HTTP struct {
	Options Options `json:"options"`
}

// Load decodes the config file at path.
func Load(path string) (Run, error) {
	var r Run
	f, err := os.Open(path)
	if err != nil {
		return r, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&r); err != nil {
		return r, fmt.Errorf("decode config %s: %w", path, err)
	}
	return r, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvThreads        = "MW_THREADS"
	EnvProgressEvery  = "MW_PROGRESS_EVERY"
	EnvMetricsBackend = "METRICS_BACKEND"
	EnvPushgatewayURL = "PUSHGATEWAY_URL"
)

// ApplyEnv overrides r with any of the environment variables above that are
// set. getenv is usually os.Getenv. A malformed number is an error naming
// the variable.
func ApplyEnv(r *Run, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvThreads)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvThreads, err)
		}
		r.Runtime.Threads = n
	}
	if v := strings.TrimSpace(getenv(EnvProgressEvery)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvProgressEvery, err)
		}
		r.Runtime.ProgressEvery = n
	}
	if v := getenv(EnvMetricsBackend); v != "" {
		r.Metrics.Backend = v
	}
	if v := getenv(EnvPushgatewayURL); v != "" {
		r.Metrics.PushgatewayURL = v
	}
	return nil
}

// Options fetches typed values from a free-form JSON object, returning the
// default when a key is absent or holds another type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers
// as float64, which is accepted and truncated.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// StringMap returns the string-valued entries of the object at key. Other
// values are ignored; a missing key gives an empty map.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON decodes a missing or null object to an empty, non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
