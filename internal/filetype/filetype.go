// Package filetype tells bzip2-compressed dumps from plain XML ones by their
// leading signature.
package filetype

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileType is the encoding of a dump file.
type FileType int

const (
	Unknown FileType = iota
	BZip2
	XML
)

var names = [...]string{Unknown: "unknown", BZip2: "bzip2", XML: "xml"}

func (t FileType) String() string {
	if t < 0 || int(t) >= len(names) {
		return fmt.Sprintf("FileType(%d)", int(t))
	}
	return names[t]
}

// Parse maps a --filetype value to a FileType. Only "bzip2" and "xml" are
// accepted.
func Parse(s string) (FileType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bzip2", "bz2":
		return BZip2, nil
	case "xml":
		return XML, nil
	}
	return Unknown, fmt.Errorf("filetype: unknown file type %q (want bzip2 or xml)", s)
}

// Compressed reports whether t needs decompressing.
func (t FileType) Compressed() bool { return t == BZip2 }

var bzip2Magic = []byte("BZh")

// Sniff classifies a dump from its first bytes. Anything that does not start
// with the bzip2 signature, including an empty or short header, is XML.
func Sniff(head []byte) FileType {
	if bytes.HasPrefix(head, bzip2Magic) {
		return BZip2
	}
	return XML
}

// Guess peeks at the signature of rs and rewinds it to where it was. Unknown
// is returned together with an error when the peek or the rewind fails.
func Guess(rs io.ReadSeeker) (FileType, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return Unknown, fmt.Errorf("filetype: seek: %w", err)
	}
	head := make([]byte, len(bzip2Magic))
	n, err := io.ReadFull(rs, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Unknown, fmt.Errorf("filetype: peek: %w", err)
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return Unknown, fmt.Errorf("filetype: rewind: %w", err)
	}
	return Sniff(head[:n]), nil
}

// Peek sniffs a stream that cannot seek. The returned reader yields the
// whole stream, signature included.
func Peek(r io.Reader) (io.Reader, FileType, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(bzip2Magic))
	if err != nil && !errors.Is(err, io.EOF) {
		return br, Unknown, fmt.Errorf("filetype: peek: %w", err)
	}
	return br, Sniff(head), nil
}

// GuessFile opens path just long enough to sniff it.
func GuessFile(path string) (FileType, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, fmt.Errorf("filetype: open %s: %w", path, err)
	}
	defer f.Close()
	return Guess(f)
}
