// Package bz2 presents a bzip2-compressed or plain byte source as one
// uniform stream of decoded bytes.
package bz2

import (
	"bufio"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
)

// DefaultBufferSize is the size of the compressed staging buffer.
const DefaultBufferSize = 32 << 10

// ErrCorrupt is returned when the compressed input cannot be decoded, either
// because it is malformed or because it ends in the middle of a stream.
var ErrCorrupt = errors.New("bz2: corrupt input")

type state int

const (
	stateInit state = iota
	stateMain
	stateTerm
)

// Reader decodes a byte source. In compressed mode the source is staged
// through a buffered reader and run through a bzip2 decompressor;
// concatenated streams (multistream dumps) decode as one. In plain mode
// reads are forwarded to the source unchanged.
//
// Once the stream ends or fails the Reader stays terminated and keeps
// returning the same error.
type Reader struct {
	src        io.Reader
	compressed bool
	bufSize    int

	raw   *bufio.Reader
	dec   io.Reader
	state state
	err   error
	n     int64
}

// NewReader returns a Reader over src. bufSize <= 0 selects DefaultBufferSize.
func NewReader(src io.Reader, compressed bool, bufSize int) *Reader {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Reader{src: src, compressed: compressed, bufSize: bufSize}
}

// Read fills p with decoded bytes. It returns io.EOF after a clean end of
// stream and an error wrapping ErrCorrupt after a decode failure.
func (r *Reader) Read(p []byte) (int, error) {
	switch r.state {
	case stateTerm:
		return 0, r.err
	case stateInit:
		r.init()
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := r.dec.Read(p)
	r.n += int64(n)
	if err != nil {
		r.term(err)
		if n > 0 {
			// hand out what was decoded before the failure first
			return n, nil
		}
		return 0, r.err
	}
	return n, nil
}

// Decoded returns the number of decoded bytes handed out so far.
func (r *Reader) Decoded() int64 { return r.n }

func (r *Reader) init() {
	r.state = stateMain
	if !r.compressed {
		r.dec = r.src
		return
	}
	r.raw = bufio.NewReaderSize(r.src, r.bufSize)
	r.dec = bzip2.NewReader(r.raw)
}

func (r *Reader) term(err error) {
	r.state = stateTerm
	var se bzip2.StructuralError
	switch {
	case err == io.EOF:
		r.err = io.EOF
	case !r.compressed:
		r.err = err
	case errors.As(err, &se), errors.Is(err, io.ErrUnexpectedEOF):
		r.err = fmt.Errorf("%w after %d bytes: %v", ErrCorrupt, r.n, err)
	default:
		r.err = fmt.Errorf("bz2: read: %w", err)
	}
}
