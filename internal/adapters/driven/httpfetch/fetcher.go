// Package httpfetch streams remote images over HTTP for the download queue.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// userAgent identifies docgraph to image hosts.
const userAgent = "docgraph"

// Ensure Fetcher implements the interface.
var _ driven.ImageFetcher = (*Fetcher)(nil)

// StatusError is a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetcher implements driven.ImageFetcher with an http.Client.
type Fetcher struct {
	client *http.Client
}

// New creates a fetcher. A nil client uses one without a global timeout;
// the download queue bounds every transfer with its own context.
func New(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport}
	}
	return &Fetcher{client: client}
}

// Fetch issues a GET and returns the body of a successful response.
func (f *Fetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
