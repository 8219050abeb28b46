// Package loader turns a CSV resource of crash records into a sequence of
// coordinates handed to a sink.
//
// The format is deliberately naive: the first line is a header and is always
// dropped, lines are split on "\n" and fields on ",", with no quoting support.
// Rows whose coordinate fields do not parse to finite numbers are skipped
// without error; they are only counted and logged at debug level.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/crashmap/internal/metrics"
	"github.com/UnknownOlympus/crashmap/internal/models"
	"github.com/UnknownOlympus/crashmap/internal/resource"
	"github.com/UnknownOlympus/crashmap/internal/sink"
)

// Default column positions of latitude and longitude in the crash records file.
const (
	DefaultLatIndex = 4
	DefaultLngIndex = 5
)

const (
	lineDelimiter  = "\n"
	fieldDelimiter = ","
)

// ErrInvalidColumns is returned by New when the configured column indexes cannot address a row.
var ErrInvalidColumns = errors.New("invalid coordinate columns")

// Options selects the columns that hold latitude and longitude.
type Options struct {
	LatIndex int // Zero-based column of the latitude field.
	LngIndex int // Zero-based column of the longitude field.
}

// DefaultOptions returns the column layout of the cleaned crash data file.
func DefaultOptions() Options {
	return Options{LatIndex: DefaultLatIndex, LngIndex: DefaultLngIndex}
}

// RecordLoader reads a resource and yields valid coordinates to a sink.
// It holds no per-load state, so concurrent Load calls are independent.
type RecordLoader struct {
	fetcher resource.Fetcher
	opts    Options
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New creates a RecordLoader. metrics may be nil.
func New(fetcher resource.Fetcher, opts Options, log *slog.Logger, metrics *metrics.Metrics) (*RecordLoader, error) {
	if opts.LatIndex < 0 || opts.LngIndex < 0 || opts.LatIndex == opts.LngIndex {
		return nil, fmt.Errorf("%w: latitude %d, longitude %d", ErrInvalidColumns, opts.LatIndex, opts.LngIndex)
	}

	return &RecordLoader{fetcher: fetcher, opts: opts, log: log, metrics: metrics}, nil
}

// Load reads source in full, drops its header line and calls dst.Add once for
// every following line whose latitude and longitude fields parse to finite
// numbers, in file order. The only error it returns wraps
// resource.ErrResourceUnavailable, in which case dst is never called.
func (rl *RecordLoader) Load(ctx context.Context, source string, dst sink.Sink) (models.LoadSummary, error) {
	startTime := time.Now()
	summary := models.LoadSummary{Source: source}

	rl.log.InfoContext(ctx, "Loading crash records", "source", source)

	data, err := rl.fetcher.Fetch(ctx, source)
	if err != nil {
		summary.Duration = time.Since(startTime)
		rl.observe(summary, false)
		rl.log.ErrorContext(ctx, "Error loading the CSV file", "source", source, "error", err)
		if !errors.Is(err, resource.ErrResourceUnavailable) {
			err = fmt.Errorf("%w: %w", resource.ErrResourceUnavailable, err)
		}

		return summary, fmt.Errorf("failed to load %s: %w", source, err)
	}

	lines := strings.Split(string(data), lineDelimiter)
	for lineNo, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		summary.Rows++

		coords, ok := rl.parse(models.RawRow(strings.Split(line, fieldDelimiter)))
		if !ok {
			summary.Skipped++
			// +2: one for the header, one for one-based numbering.
			rl.log.DebugContext(ctx, "Skipping row without numeric coordinates", "source", source, "line", lineNo+2)
			continue
		}

		dst.Add(coords)
		summary.Plotted++
	}

	summary.Duration = time.Since(startTime)
	rl.observe(summary, true)
	rl.log.InfoContext(ctx, "Crash records loaded",
		"source", source,
		"rows", summary.Rows,
		"plotted", summary.Plotted,
		"skipped", summary.Skipped,
		"duration", summary.Duration)

	return summary, nil
}

// parse extracts the coordinate pair from row.
func (rl *RecordLoader) parse(row models.RawRow) (models.Coordinates, bool) {
	lat, ok := parseField(row, rl.opts.LatIndex)
	if !ok {
		return models.Coordinates{}, false
	}
	lng, ok := parseField(row, rl.opts.LngIndex)
	if !ok {
		return models.Coordinates{}, false
	}

	coords := models.Coordinates{Latitude: lat, Longitude: lng}

	return coords, coords.Valid()
}

func parseField(row models.RawRow, idx int) (float64, bool) {
	field, ok := row.Field(idx)
	if !ok || field == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, false
	}

	return value, true
}

func (rl *RecordLoader) observe(summary models.LoadSummary, success bool) {
	if rl.metrics == nil {
		return
	}

	status := metrics.StatusSuccess
	if !success {
		status = metrics.StatusFailure
	}
	rl.metrics.LoadsTotal.WithLabelValues(status).Inc()
	rl.metrics.LoadSeconds.Observe(summary.Duration.Seconds())
	rl.metrics.RowsRead.Add(float64(summary.Rows))
	rl.metrics.RowsSkipped.Add(float64(summary.Skipped))
	rl.metrics.MarkersPlotted.Add(float64(summary.Plotted))
}
