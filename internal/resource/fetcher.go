package resource

import (
	"context"
	"errors"
)

// Fetcher is an interface that defines a method for reading a text resource.
// The Fetch method takes a context and a path or URL, and returns the whole
// resource body. Any failure to read it is reported as ErrResourceUnavailable.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Common errors for resource fetchers.
var (
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrUnsupportedScheme   = errors.New("unsupported resource scheme")
)
