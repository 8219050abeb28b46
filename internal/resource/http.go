package resource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultUserAgent is sent with every HTTP fetch.
const DefaultUserAgent = "Crashmap/1.0 (https://github.com/UnknownOlympus/crashmap)"

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPFetcher reads resources over HTTP(S).
type HTTPFetcher struct {
	client    HTTPClient   // HTTP client for making requests
	log       *slog.Logger // Logger for logging operations
	userAgent string
}

// NewHTTPFetcher creates an HTTP fetcher with its own client and the given timeout.
func NewHTTPFetcher(timeout time.Duration, log *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		log:       log,
		userAgent: DefaultUserAgent,
	}
}

// NewHTTPFetcherWithClient creates an HTTP fetcher with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewHTTPFetcherWithClient(client HTTPClient, log *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{client: client, log: log, userAgent: DefaultUserAgent}
}

// Fetch downloads the full body at url. Transport errors, non-2xx statuses and
// body read errors are all returned wrapped in ErrResourceUnavailable.
func (hf *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	hf.log.DebugContext(ctx, "Fetching resource over HTTP", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrResourceUnavailable, err)
	}
	req.Header.Set("User-Agent", hf.userAgent)
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := hf.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %w", ErrResourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		hf.log.ErrorContext(ctx, "Resource server returned an error", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: server returned status %d", ErrResourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrResourceUnavailable, err)
	}

	hf.log.DebugContext(ctx, "Resource fetched", "url", url, "bytes", len(body))

	return body, nil
}
