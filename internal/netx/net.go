// Package netx contains plain HTTP helpers used next to the gRPC transport.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPDoer is the part of *http.Client used here.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// UploadToPresignedURL PUTs body to an object-storage presigned URL. The
// content type must match the one the URL was signed for.
func UploadToPresignedURL(ctx context.Context, c HTTPDoer, url, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
