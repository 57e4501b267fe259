// Package datasource resolves a dump location to something that can be
// opened for reading: a local path or an http(s) URL.
package datasource

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"mwdump/internal/datasource/file"
	"mwdump/internal/datasource/httpds"
)

// Source is a readable dump.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Location is the path or URL the source was resolved from.
	Location() string
}

// IsRemote reports whether loc names an http(s) URL.
func IsRemote(loc string) bool {
	l := strings.ToLower(loc)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Resolve maps loc to a Source. client serves remote locations and may be
// nil when none are expected, in which case a default client is created.
func Resolve(loc string, client *httpds.Client) Source {
	if IsRemote(loc) {
		if client == nil {
			client = httpds.NewClient(httpds.Config{})
		}
		return httpds.NewRemote(client, loc)
	}
	return file.NewLocal(loc)
}

// BaseName is the file name part of loc, used to name outputs.
func BaseName(loc string) string {
	if IsRemote(loc) {
		return httpds.BaseName(loc)
	}
	return filepath.Base(loc)
}
