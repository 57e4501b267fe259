package httpds

import (
	"context"
	"io"
	"net/url"
	"path"
)

// Remote is a dump served over HTTP(S).
type Remote struct {
	client *Client
	url    string
}

// NewRemote binds url to client.
func NewRemote(client *Client, url string) *Remote {
	return &Remote{client: client, url: url}
}

// Open starts the download and returns the response body.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.client.Get(ctx, r.url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Location returns the URL.
func (r *Remote) Location() string { return r.url }

// BaseName is the last path element of a URL, without query or fragment:
// https://dumps.wikimedia.org/simplewiki/latest/simplewiki-latest-pages-articles.xml.bz2
// gives simplewiki-latest-pages-articles.xml.bz2.
func BaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "download"
	}
	return path.Base(u.Path)
}
