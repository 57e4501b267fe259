package mediawiki

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// DefaultBufferSize is the chunk size pulled from the source per read.
const DefaultBufferSize = 64 << 10

var (
	// ErrNotRunning is returned by Suspend when called outside a listener callback.
	ErrNotRunning = errors.New("mediawiki: parser is not running")
	// ErrNotSuspended is returned by Resume when the parser was never started
	// or is currently running.
	ErrNotSuspended = errors.New("mediawiki: parser is not suspended")
)

// Control is the capability handed to listener callbacks. It lets a
// listener pause the parse at the current event.
type Control interface {
	Suspend() error
}

// Listener receives document events in order.
//
// The text slice passed to HandleCharData is only valid for the duration of
// the call.
type Listener interface {
	HandleCharData(ctl Control, text []byte)
	HandleStartElement(ctl Control, name string, attrs []xml.Attr)
	HandleEndElement(ctl Control, name string)
}

type parserState int

const (
	parserIdle parserState = iota
	parserRunning
	parserSuspended
	parserFinished
	parserFailed
)

// Parser drives an encoding/xml tokenizer over a byte source and forwards
// its events to a Listener. A listener may call Suspend from within a
// callback; Walk or Resume then return right after that callback and a
// later Resume continues from the very next token.
type Parser struct {
	dec      *xml.Decoder
	listener Listener
	state    parserState
	pause    bool
	err      error
}

// NewParser returns a parser reading from r in chunks of bufSize bytes
// (DefaultBufferSize when bufSize <= 0).
func NewParser(r io.Reader, bufSize int) *Parser {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	dec := xml.NewDecoder(bufio.NewReaderSize(r, bufSize))
	return &Parser{dec: dec}
}

// Walk binds listener and parses until the source is exhausted, a syntax
// error occurs or the listener suspends. A nil error with Suspended()
// reporting false means the document was consumed completely.
func (p *Parser) Walk(listener Listener) error {
	switch p.state {
	case parserFailed:
		return p.err
	case parserFinished:
		return nil
	case parserRunning:
		return fmt.Errorf("mediawiki: walk: %w", ErrNotSuspended)
	}
	p.listener = listener
	return p.run()
}

// Resume continues a suspended parse. It returns nil straight away when the
// parse has already finished.
func (p *Parser) Resume() error {
	switch p.state {
	case parserSuspended:
		return p.run()
	case parserFinished:
		return nil
	case parserFailed:
		return p.err
	default:
		return ErrNotSuspended
	}
}

// Suspend asks the parser to stop after the current callback returns. The
// tokenizer keeps its nesting state.
func (p *Parser) Suspend() error {
	if p.state != parserRunning {
		return ErrNotRunning
	}
	p.pause = true
	return nil
}

// Suspended reports whether the last Walk or Resume stopped on a Suspend.
func (p *Parser) Suspended() bool { return p.state == parserSuspended }

// Finished reports whether the whole document has been consumed.
func (p *Parser) Finished() bool { return p.state == parserFinished }

// Err returns the terminal syntax or read error, if any.
func (p *Parser) Err() error { return p.err }

// InputOffset is the byte offset of the tokenizer in the decoded input.
func (p *Parser) InputOffset() int64 { return p.dec.InputOffset() }

func (p *Parser) run() error {
	p.state = parserRunning
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			p.state = parserFinished
			return nil
		}
		if err != nil {
			p.state = parserFailed
			p.err = fmt.Errorf("mediawiki: parse at offset %d: %w", p.dec.InputOffset(), err)
			return p.err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.listener.HandleStartElement(p, t.Name.Local, t.Attr)
		case xml.EndElement:
			p.listener.HandleEndElement(p, t.Name.Local)
		case xml.CharData:
			p.listener.HandleCharData(p, t)
		}

		if p.pause {
			p.pause = false
			p.state = parserSuspended
			return nil
		}
	}
}
