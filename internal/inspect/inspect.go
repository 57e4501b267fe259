// Package inspect surveys the structure of a dump: every element path found
// under <page>, how often it occurs, example texts and attribute values.
// Paths the converter does not read are flagged, which is how schema
// additions in newer dump versions show up.
//
// Discovery tolerates truncated input, so a sample of the first bytes of a
// large dump is enough. Only fully closed pages are counted.
package inspect

import (
	"encoding/xml"
	"errors"
	"io"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"mwdump/internal/bz2"
	"mwdump/internal/mediawiki"
)

const (
	DefaultRecordTag = "page"
	DefaultExamples  = 3
	maxExampleLen    = 80
)

// PathStats aggregates one element path relative to the record tag.
type PathStats struct {
	TotalCount   int                       `json:"total_count"`
	RecordsWith  int                       `json:"records_with"`
	MaxPerRecord int                       `json:"max_per_record"`
	Decoded      bool                      `json:"decoded"`
	ExampleTexts []string                  `json:"example_texts,omitempty"`
	AttrExamples map[string]map[string]int `json:"attr_examples,omitempty"` // attr -> value -> count
}

// Report is the result of Discover.
type Report struct {
	RecordTag    string               `json:"record_tag"`
	TotalRecords int                  `json:"total_records"`
	Paths        map[string]PathStats `json:"paths"`
	// Skipped lists the paths the converter ignores, sorted.
	Skipped []string `json:"skipped,omitempty"`
	// Truncated is set when the input ended inside the document.
	Truncated bool `json:"truncated"`
}

// Options tunes Discover. The zero value surveys every <page>.
type Options struct {
	RecordTag  string
	MaxRecords int // stop after this many records; 0 = no limit
	Examples   int // example texts kept per path
}

type frame struct {
	attrs []xml.Attr
	text  []byte
}

type recordStats struct {
	count      int
	examples   []string
	attrCounts map[string]map[string]int
}

// Discover scans r and inventories the element paths below each record.
// Input that ends early, whether cut XML or a cut bzip2 stream, ends the
// scan with Truncated set; any other read error is returned.
func Discover(r io.Reader, opts Options) (Report, error) {
	if opts.RecordTag == "" {
		opts.RecordTag = DefaultRecordTag
	}
	if opts.Examples <= 0 {
		opts.Examples = DefaultExamples
	}
	known := mediawiki.ElementPaths()

	dec := xml.NewDecoder(r)
	dec.Strict = false

	rep := Report{RecordTag: opts.RecordTag, Paths: map[string]PathStats{}}
	var (
		inRecord bool
		rel      []string
		frames   []frame
		perRec   = map[string]*recordStats{}
	)

	merge := func() {
		rep.TotalRecords++
		for path, rs := range perRec {
			ps := rep.Paths[path]
			ps.TotalCount += rs.count
			ps.RecordsWith++
			ps.MaxPerRecord = max(ps.MaxPerRecord, rs.count)
			for _, ex := range rs.examples {
				ps.ExampleTexts = addExample(ps.ExampleTexts, ex, opts.Examples)
			}
			for attr, vals := range rs.attrCounts {
				if ps.AttrExamples == nil {
					ps.AttrExamples = map[string]map[string]int{}
				}
				dst := ps.AttrExamples[attr]
				if dst == nil {
					dst = map[string]int{}
					ps.AttrExamples[attr] = dst
				}
				for v, c := range vals {
					dst[v] += c
				}
			}
			rep.Paths[path] = ps
		}
		clear(perRec)
	}

	for opts.MaxRecords <= 0 || rep.TotalRecords < opts.MaxRecords {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if !truncation(err) {
				return finish(rep, known), err
			}
			rep.Truncated = true
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !inRecord {
				if t.Name.Local == opts.RecordTag {
					inRecord = true
					rel, frames = rel[:0], frames[:0]
				}
				continue
			}
			rel = append(rel, t.Name.Local)
			frames = append(frames, frame{attrs: slices.Clone(t.Attr)})

		case xml.CharData:
			if inRecord && len(frames) > 0 {
				f := &frames[len(frames)-1]
				f.text = append(f.text, t...)
			}

		case xml.EndElement:
			if !inRecord {
				continue
			}
			if len(rel) == 0 {
				if t.Name.Local == opts.RecordTag {
					merge()
					inRecord = false
				}
				continue
			}
			path := strings.Join(rel, "/")
			f := frames[len(frames)-1]
			rel, frames = rel[:len(rel)-1], frames[:len(frames)-1]

			rs := perRec[path]
			if rs == nil {
				rs = &recordStats{attrCounts: map[string]map[string]int{}}
				perRec[path] = rs
			}
			rs.count++
			if txt := strings.TrimSpace(string(f.text)); txt != "" {
				rs.examples = addExample(rs.examples, clip(txt), opts.Examples)
			}
			for _, a := range f.attrs {
				vals := rs.attrCounts[a.Name.Local]
				if vals == nil {
					vals = map[string]int{}
					rs.attrCounts[a.Name.Local] = vals
				}
				vals[a.Value]++
			}
		}
	}
	return finish(rep, known), nil
}

func finish(rep Report, known []string) Report {
	for path, ps := range rep.Paths {
		_, ps.Decoded = slices.BinarySearch(known, path)
		rep.Paths[path] = ps
		if !ps.Decoded {
			rep.Skipped = append(rep.Skipped, path)
		}
	}
	sort.Strings(rep.Skipped)
	return rep
}

// truncation reports whether err means the input stopped early rather than
// failed to read.
func truncation(err error) bool {
	var syn *xml.SyntaxError
	return errors.As(err, &syn) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, bz2.ErrCorrupt)
}

func addExample(have []string, v string, capN int) []string {
	if v == "" || len(have) >= capN || slices.Contains(have, v) {
		return have
	}
	return append(have, v)
}

// clip shortens long texts, such as revision bodies, to a readable sample.
func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxExampleLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxExampleLen]) + "…"
}

// SortedPaths returns the report's paths in a deterministic order.
func SortedPaths(rep Report) []string {
	paths := make([]string, 0, len(rep.Paths))
	for p := range rep.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
