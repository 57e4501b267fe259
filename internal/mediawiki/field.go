package mediawiki

import "encoding/xml"

// arena accumulates the text of the field being decoded. Its storage is
// owned by one decoder and reused for every field and record it decodes;
// reset only truncates.
type arena struct {
	buf []byte
}

func (a *arena) reset() { a.buf = a.buf[:0] }

func (a *arena) write(p []byte) { a.buf = append(a.buf, p...) }

// grow makes room for n more bytes without a further allocation.
func (a *arena) grow(n int) {
	if n <= 0 || cap(a.buf)-len(a.buf) >= n {
		return
	}
	buf := make([]byte, len(a.buf), len(a.buf)+n)
	copy(buf, a.buf)
	a.buf = buf
}

func (a *arena) String() string { return string(a.buf) }

// fieldSet lists the child elements of a record in schema order. A
// decoder's state is an index into its fieldSet.
type fieldSet []string

// seek applies the transition rule shared by every decoder: starting at
// from, return the first position expecting name. Positions passed over
// are optional fields absent from the input. ok is false when no remaining
// position expects name; the element is then skipped as an opaque subtree
// and the state does not move.
func (fs fieldSet) seek(from int, name string) (pos int, ok bool) {
	for i := from; i < len(fs); i++ {
		if fs[i] == name {
			return i, true
		}
	}
	return from, false
}

// cursor is the bookkeeping every record decoder carries: nesting depth
// below (and including) the record root and whether a leaf field is
// currently capturing character data.
type cursor struct {
	depth   int
	capture bool
	text    arena
}

// open enters a leaf field.
func (c *cursor) open() {
	c.text.reset()
	c.capture = true
}

// chardata appends text when directly inside a capturing leaf field.
func (c *cursor) chardata(text []byte) {
	if c.capture && c.depth == 2 {
		c.text.write(text)
	}
}

// child is a decoder that a parent forwards a whole subtree to.
type child interface {
	Listener
	// active reports whether the child is still inside its root element.
	active() bool
}

type reporter func(*FieldError)

func (r reporter) fail(record, element, text string, err error) {
	if r != nil {
		r(&FieldError{Record: record, Element: element, Text: text, Err: err})
	}
}

func attr(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func strptr(s string) *string { return &s }
