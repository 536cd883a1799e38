package driven

import (
	"context"
	"io"
)

// ImageFetcher streams a remote image.
type ImageFetcher interface {
	// Fetch opens the remote resource. The caller closes the body.
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}
