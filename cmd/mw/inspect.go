package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"mwdump/internal/bz2"
	"mwdump/internal/datasource"
	"mwdump/internal/filetype"
	"mwdump/internal/inspect"
)

// inspect prints a JSON survey of the element paths under each page of a
// dump, flagging the ones the converter skips. A byte limit samples the
// head of a large dump.
func (c cli) inspect(args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	limit := fs.Int64("bytes", 64<<20, "read at most this many source bytes; 0 reads everything")
	records := fs.Int("records", 0, "stop after this many pages; 0 = no limit")
	examples := fs.Int("examples", inspect.DefaultExamples, "example texts kept per path")
	recordTag := fs.String("record-tag", inspect.DefaultRecordTag, "element that delimits a record")
	ftName := fs.String("filetype", "", "force the input type (bzip2 or xml) instead of sniffing")
	pretty := fs.Bool("pretty", false, "pretty-print JSON output")
	fs.Usage = func() {
		fmt.Fprintln(c.stderr, "usage: mw inspect [options] SRC\n\noptions:")
		fs.PrintDefaults()
	}

	pos, err := parseInterleaved(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 1
	}
	if len(pos) != 1 {
		fs.Usage()
		return 1
	}

	ft := filetype.Unknown
	if *ftName != "" {
		if ft, err = filetype.Parse(*ftName); err != nil {
			return c.failf("%v", err)
		}
	}

	rc, err := datasource.Resolve(pos[0], nil).Open(context.Background())
	if err != nil {
		return c.failf("%v", err)
	}
	defer rc.Close()

	var in io.Reader = rc
	if *limit > 0 {
		in = io.LimitReader(rc, *limit)
	}
	if ft == filetype.Unknown {
		if in, ft, err = filetype.Peek(in); err != nil {
			return c.failf("%v", err)
		}
	}

	rep, err := inspect.Discover(bz2.NewReader(in, ft.Compressed(), 0), inspect.Options{
		RecordTag:  *recordTag,
		MaxRecords: *records,
		Examples:   *examples,
	})
	if err != nil {
		return c.failf("inspect %s: %v", pos[0], err)
	}

	enc := json.NewEncoder(c.stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(rep); err != nil {
		return c.failf("encode report: %v", err)
	}
	return 0
}
