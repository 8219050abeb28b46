package resource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const fileScheme = "file://"

// FileFetcher reads resources from the local filesystem.
type FileFetcher struct {
	log *slog.Logger
}

// NewFileFetcher creates a filesystem fetcher.
func NewFileFetcher(log *slog.Logger) *FileFetcher {
	return &FileFetcher{log: log}
}

// Fetch reads the whole file at path. A leading file:// is stripped.
func (ff *FileFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}

	path = strings.TrimPrefix(path, fileScheme)
	ff.log.DebugContext(ctx, "Reading resource from file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}

	return data, nil
}
