package mediawiki

import "io"

type readerState int

const (
	readerInit readerState = iota
	readerNext
	readerTerm
)

// ReaderOption configures a PageReader.
type ReaderOption func(*readerOptions)

type readerOptions struct {
	bufSize int
	onError func(*FieldError)
}

// WithBufferSize sets the size of the chunks pulled from the source.
func WithBufferSize(n int) ReaderOption {
	return func(o *readerOptions) { o.bufSize = n }
}

// WithFieldErrorHandler registers fn to receive field conversion failures.
// Decoding carries on after each one.
func WithFieldErrorHandler(fn func(*FieldError)) ReaderOption {
	return func(o *readerOptions) { o.onError = fn }
}

// PageReader iterates over the pages of a dump, one at a time:
//
//	r := mediawiki.NewPageReader(src)
//	for r.Next() {
//		page := r.Read()
//		...
//	}
//	if err := r.Err(); err != nil {
//		...
//	}
type PageReader struct {
	parser  *Parser
	decoder *PageDecoder
	state   readerState
	err     error
}

// NewPageReader returns a reader over the XML document in r.
func NewPageReader(r io.Reader, opts ...ReaderOption) *PageReader {
	var o readerOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &PageReader{
		parser:  NewParser(r, o.bufSize),
		decoder: NewPageDecoder(o.onError),
	}
}

// Next advances to the next page. It returns false once the document is
// exhausted or parsing failed; Err tells the two apart.
func (r *PageReader) Next() bool {
	var err error
	switch r.state {
	case readerInit:
		r.state = readerNext
		err = r.parser.Walk(r.decoder)
	case readerNext:
		err = r.parser.Resume()
	case readerTerm:
		return false
	}
	if err != nil {
		r.err = err
		r.state = readerTerm
		return false
	}
	if !r.parser.Suspended() {
		r.state = readerTerm
		return false
	}
	return true
}

// Read returns the page Next stopped on. The page owns its data.
func (r *PageReader) Read() Page { return r.decoder.Page() }

// Err returns the parse error that ended iteration, if any.
func (r *PageReader) Err() error { return r.err }

// SiteInfo returns the dump's <siteinfo> once it has been read, which for a
// regular dump is before the first page.
func (r *PageReader) SiteInfo() (SiteInfo, bool) { return r.decoder.SiteInfo() }

// Offset is the number of decompressed bytes consumed so far.
func (r *PageReader) Offset() int64 { return r.parser.InputOffset() }
