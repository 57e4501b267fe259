// Package file reads dumps from the local filesystem.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local is a dump file on local disk.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the file for a single sequential pass. A context that is
// already done short-circuits before touching the filesystem. The returned
// value is an *os.File, so callers may seek it.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}

// Location returns the path.
func (l *Local) Location() string { return l.path }
