package mediawiki

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts used by MediaWiki dumps, tried in order.
const (
	TimestampLayout        = "2006-01-02T15:04:05Z"
	CompactTimestampLayout = "20060102150405"
)

var (
	// ErrBadTimestamp is returned when a timestamp matches none of the known layouts.
	ErrBadTimestamp = errors.New("mediawiki: bad timestamp")
	// ErrBadNumber is returned when a numeric field is not an unsigned integer.
	ErrBadNumber = errors.New("mediawiki: bad number")
	// ErrMissingField is returned when a required field never appeared.
	ErrMissingField = errors.New("mediawiki: missing field")
)

// ParseTimestamp parses s as either "YYYY-MM-DDTHH:MM:SSZ" or the compact
// "YYYYMMDDHHMMSS" form and returns milliseconds since the Unix epoch (UTC).
func ParseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	for _, layout := range [...]string{TimestampLayout, CompactTimestampLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// ParseUint64 parses a base-10 unsigned integer, ignoring surrounding
// whitespace.
func ParseUint64(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNumber, s)
	}
	return v, nil
}

// FieldError describes a field whose text could not be converted. The field
// is left at its zero value and decoding continues.
type FieldError struct {
	Record  string // "page", "revision", "contributor", ...
	Element string
	Text    string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Record, e.Element, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
