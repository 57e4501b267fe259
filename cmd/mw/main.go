// Command mw converts MediaWiki XML dumps to Parquet.
//
//	mw convert [options] SRC DST
//	mw inspect [options] SRC
//
// SRC is a dump file (plain or bzip2), a directory of dumps or an http(s)
// URL. With a single file DST is the output file; with a directory or a
// -list file it is an output directory, created if absent.
//
// inspect prints a JSON report of the elements found under each page,
// flagging the ones convert does not read.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mwdump/internal/bitmap"
	"mwdump/internal/columnar"
	"mwdump/internal/config"
	"mwdump/internal/convert"
	"mwdump/internal/datasource/httpds"
	"mwdump/internal/filetype"
	"mwdump/internal/storage"

	// register all manifest backends with the storage factory.
	_ "mwdump/internal/storage/all"
)

const usageText = `usage: mw <command> [options]

commands:
  convert [options] SRC DST   convert a dump file, directory or URL to Parquet
  inspect [options] SRC       report the element paths found under each page

run "mw <command> -help" for the command options.
`

func main() {
	c := cli{stdout: os.Stdout, stderr: os.Stderr, getenv: os.Getenv}
	os.Exit(c.run(os.Args[1:]))
}

// cli carries the process environment so tests can run it in parallel.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

func (c cli) run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(c.stderr, usageText)
		return 1
	}
	switch args[0] {
	case "convert":
		return c.convert(args[1:])
	case "inspect":
		return c.inspect(args[1:])
	case "help", "-h", "-help", "--help":
		fmt.Fprint(c.stderr, usageText)
		return 0
	default:
		fmt.Fprintf(c.stderr, "mw: unknown command %q\n\n%s", args[0], usageText)
		return 1
	}
}

type convertFlags struct {
	codec          string
	level          int
	fileType       string
	threads        int
	configPath     string
	verbose        bool
	metricsBackend string
	pushgatewayURL string
	datadogAddr    string
	manifestKind   string
	manifestDSN    string
	manifestTable  string
	list           string
	namespaces     string
	progress       int
	nfc            bool
}

func (f *convertFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.codec, "compression-codec", columnar.DefaultCodec, "parquet codec: zstd, snappy, gzip, brotli, lz4, none")
	fs.IntVar(&f.level, "compression-level", 0, "codec level; 0 picks the codec default")
	fs.StringVar(&f.fileType, "filetype", "", "force the input type (bzip2 or xml) instead of sniffing")
	fs.IntVar(&f.threads, "threads", 0, "worker count; 0 means one per CPU (env MW_THREADS)")
	fs.StringVar(&f.configPath, "config", "", "run config JSON path")
	fs.BoolVar(&f.verbose, "v", false, "enable verbose logs")
	fs.StringVar(&f.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway, datadog (env METRICS_BACKEND)")
	fs.StringVar(&f.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (env PUSHGATEWAY_URL)")
	fs.StringVar(&f.datadogAddr, "datadog-addr", "", "DogStatsD address")
	fs.StringVar(&f.manifestKind, "manifest-kind", "", "manifest database: sqlite, postgres, mysql, mssql")
	fs.StringVar(&f.manifestDSN, "manifest-dsn", "", "manifest DSN; empty disables the manifest")
	fs.StringVar(&f.manifestTable, "manifest-table", "", "manifest table (default "+storage.DefaultTable+")")
	fs.StringVar(&f.namespaces, "namespaces", "", "only convert pages in these namespaces, e.g. 0,14")
	fs.StringVar(&f.list, "list", "", "read sources from this file, one path or URL per line")
	fs.IntVar(&f.progress, "progress", 0, "log progress every n pages; negative disables (env MW_PROGRESS_EVERY)")
	fs.BoolVar(&f.nfc, "nfc", false, "normalise titles and redirects to NFC")
}

// apply copies the flags the user actually set over r.
func (f *convertFlags) apply(fs *flag.FlagSet, r *config.Run) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "compression-codec":
			r.Output.Codec = f.codec
		case "compression-level":
			r.Output.Level = f.level
		case "filetype":
			r.FileType = f.fileType
		case "threads":
			r.Runtime.Threads = f.threads
		case "metrics-backend":
			r.Metrics.Backend = f.metricsBackend
		case "pushgateway-url":
			r.Metrics.PushgatewayURL = f.pushgatewayURL
		case "datadog-addr":
			r.Metrics.DatadogAddr = f.datadogAddr
		case "manifest-kind":
			r.Manifest.Kind = f.manifestKind
		case "manifest-dsn":
			r.Manifest.DSN = f.manifestDSN
		case "manifest-table":
			r.Manifest.Table = f.manifestTable
		case "list":
			r.Source.List = f.list
		case "namespaces":
			r.Namespaces = f.namespaces
		case "progress":
			r.Runtime.ProgressEvery = f.progress
		case "nfc":
			r.Output.NFC = f.nfc
		}
	})
}

func (c cli) convert(args []string) int {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		fmt.Fprintln(c.stderr, "usage: mw convert [options] SRC DST\n       mw convert [options] -list FILE DST\n\noptions:")
		fs.PrintDefaults()
	}
	var fl convertFlags
	fl.register(fs)

	pos, err := parseInterleaved(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 1
	}

	var r config.Run
	if fl.configPath != "" {
		if r, err = config.Load(fl.configPath); err != nil {
			return c.failf("%v", err)
		}
	}
	if err := config.ApplyEnv(&r, c.getenv); err != nil {
		return c.failf("env: %v", err)
	}
	fl.apply(fs, &r)

	switch {
	case len(pos) == 2 && r.Source.List == "":
		r.Source.Path, r.Output.Path = pos[0], pos[1]
	case len(pos) == 1 && r.Source.List != "":
		r.Output.Path = pos[0]
	case len(pos) == 0 && r.Output.Path != "":
		// everything came from the config file
	default:
		fs.Usage()
		return 1
	}

	issues := config.ValidateRun(r)
	for _, iss := range issues {
		fmt.Fprintf(c.stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flush := setupMetrics(r, fl.verbose); flush != nil {
		defer flush()
	}

	plan, err := planJobs(r.Source, r.Output.Path)
	if err != nil {
		return c.failf("%v", err)
	}

	opts := convert.Options{
		Threads:       r.Runtime.Threads,
		ProgressEvery: r.Runtime.ProgressEvery,
		BufferSize:    r.Runtime.BufferSize,
		Sink: columnar.Options{
			Codec:        r.Output.Codec,
			Level:        r.Output.Level,
			RowGroupRows: r.Output.RowGroupRows,
			NFC:          r.Output.NFC,
		},
		Client:  newHTTPClient(r.HTTP),
		Verbose: fl.verbose,
	}
	// both validated above
	if r.FileType != "" {
		opts.FileType, _ = filetype.Parse(r.FileType)
	}
	if r.Namespaces != "" {
		opts.Namespaces, _ = bitmap.Parse(r.Namespaces)
	}

	if r.Manifest.DSN != "" {
		kind := r.Manifest.Kind
		if kind == "" {
			kind = "sqlite"
		}
		repo, err := storage.Open(ctx, storage.Config{Kind: kind, DSN: r.Manifest.DSN, Table: r.Manifest.Table})
		if err != nil {
			return c.failf("manifest: %v", err)
		}
		defer repo.Close()
		opts.Manifest = repo
	}

	if fl.verbose {
		log.Printf("convert: jobs=%d threads=%d codec=%s filetype=%s",
			len(plan), convert.PoolSize(opts.Threads, len(plan)), r.Output.Codec, opts.FileType)
	}

	start := time.Now()
	sum, err := convert.Run(ctx, plan, opts)
	convert.LogSummary(sum)
	if err != nil {
		return c.failf("convert: %v", err)
	}
	// parse and decode failures keep their partial output; filesystem
	// failures mean a file could not be read or written at all
	if sum.FSFailed > 0 {
		return c.failf("convert: %d of %d jobs failed on filesystem errors", sum.FSFailed, sum.Jobs)
	}
	if fl.verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return 0
}

// parseInterleaved parses flags that appear before, between or after the
// positional arguments.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return pos, nil
		}
		if n := len(args) - len(rest); n > 0 && args[n-1] == "--" {
			return append(pos, rest...), nil
		}
		pos = append(pos, rest[0])
		args = rest[1:]
	}
}

func newHTTPClient(h config.HTTP) *httpds.Client {
	return httpds.NewClient(httpds.Config{
		Timeout:            time.Duration(h.Options.Int("timeout_seconds", 0)) * time.Second,
		MaxRetries:         h.Options.Int("max_retries", 0),
		UserAgent:          h.Options.String("user_agent", ""),
		InsecureSkipVerify: h.Options.Bool("insecure_skip_verify", false),
	})
}

func (c cli) failf(format string, a ...any) int {
	fmt.Fprintf(c.stderr, "mw: "+format+"\n", a...)
	return 1
}
