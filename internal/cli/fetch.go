package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	userAgent = "nlpkit/1.0 (+https://github.com/happyhackingspace/nlpkit)"
	// maxPageSize caps how much of a fetched page is read.
	maxPageSize = 5 * 1024 * 1024
)

// httpClient is the interface used for HTTP requests (allows testing).
type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// get issues a GET and returns the open body of a 200 response.
func get(ctx context.Context, client httpClient, rawURL, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func fetchPage(ctx context.Context, client httpClient, rawURL string) (string, error) {
	body, err := get(ctx, client, rawURL, "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(io.LimitReader(body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(data), nil
}
