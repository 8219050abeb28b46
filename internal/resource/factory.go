package resource

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// FetcherConfig holds configuration for creating a resource fetcher.
type FetcherConfig struct {
	Timeout time.Duration // Timeout for HTTP requests
	Logger  *slog.Logger  // Logger for the fetchers
}

// RouterFetcher dispatches a location to the HTTP or file fetcher by its scheme.
type RouterFetcher struct {
	http Fetcher
	file Fetcher
}

// NewFetcher creates a fetcher that understands http://, https://, file:// and plain paths.
func NewFetcher(config FetcherConfig) *RouterFetcher {
	const defaultTimeout = 30 * time.Second
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	return NewRouterFetcher(NewHTTPFetcher(config.Timeout, config.Logger), NewFileFetcher(config.Logger))
}

// NewRouterFetcher wires the given fetchers together.
func NewRouterFetcher(httpFetcher, fileFetcher Fetcher) *RouterFetcher {
	return &RouterFetcher{http: httpFetcher, file: fileFetcher}
}

// Fetch reads location with the fetcher that matches its scheme.
func (rf *RouterFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	scheme, _, found := strings.Cut(location, "://")
	if !found {
		return rf.file.Fetch(ctx, location)
	}

	switch strings.ToLower(scheme) {
	case "http", "https":
		return rf.http.Fetch(ctx, location)
	case "file":
		return rf.file.Fetch(ctx, location)
	default:
		return nil, fmt.Errorf("%w: %w: %s", ErrResourceUnavailable, ErrUnsupportedScheme, scheme)
	}
}
