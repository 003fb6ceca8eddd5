package httpds

import (
	"context"
	"io"
	"net/url"
	"path"
)

// Remote is a source table served over HTTP.
type Remote struct {
	client *Client
	url    string
}

// NewRemote returns a source that fetches rawURL with client.
func NewRemote(client *Client, rawURL string) *Remote {
	return &Remote{client: client, url: rawURL}
}

// URL returns the bound URL.
func (r *Remote) URL() string { return r.url }

// Name returns the last path element of the URL.
func (r *Remote) Name() string {
	u, err := url.Parse(r.url)
	if err != nil || u.Path == "" {
		return r.url
	}
	return path.Base(u.Path)
}

// Open issues the GET and returns the response body.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.client.Get(ctx, r.url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
