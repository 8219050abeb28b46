package service

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/crashmap/internal/metrics"
	"github.com/UnknownOlympus/crashmap/internal/models"
	"github.com/UnknownOlympus/crashmap/internal/repository"
	"github.com/UnknownOlympus/crashmap/internal/sink"
)

// ErrRenderingDisabled is returned by RenderMap when no renderer is configured.
var ErrRenderingDisabled = errors.New("static map rendering is not configured")

// Loader reads a crash records resource into a sink.
type Loader interface {
	Load(ctx context.Context, source string, dst sink.Sink) (models.LoadSummary, error)
}

// Renderer draws markers on a map image.
type Renderer interface {
	Render(ctx context.Context, coords []models.Coordinates) (image.Image, error)
}

// MapService keeps the current marker set of a crash records source,
// reloading it on demand or on a fixed interval.
type MapService struct {
	log             *slog.Logger         // Logger for logging service activities
	loader          Loader               // Loader for the crash records resource
	repo            repository.Interface // Optional marker persistence, may be nil
	renderer        Renderer             // Optional static map renderer, may be nil
	metrics         *metrics.Metrics     // Metrics for tracking service performance
	source          string               // Path or URL of the crash records
	refreshInterval time.Duration        // Interval between reloads, zero loads once

	refreshMu sync.Mutex // serializes Refresh calls
	mu        sync.RWMutex
	markers   *sink.Collector
	index     *sink.Index
	last      models.LoadSummary
}

// NewMapService creates a new instance of MapService. repo and renderer may be nil.
func NewMapService(
	log *slog.Logger,
	loader Loader,
	repo repository.Interface,
	renderer Renderer,
	metrics *metrics.Metrics,
	source string,
	refreshInterval time.Duration,
) *MapService {
	return &MapService{
		log:             log,
		loader:          loader,
		repo:            repo,
		renderer:        renderer,
		metrics:         metrics,
		source:          source,
		refreshInterval: refreshInterval,
		markers:         sink.NewCollector(),
		index:           sink.NewIndex(),
	}
}

// Run loads the source once and then, when a refresh interval is set, reloads it
// periodically. It returns when ctx is cancelled.
func (ms *MapService) Run(ctx context.Context) {
	ms.log.InfoContext(ctx, "Map service started...", "source", ms.source)

	if _, err := ms.Refresh(ctx); err != nil {
		ms.log.ErrorContext(ctx, "Initial load failed", "error", err)
	}

	if ms.refreshInterval <= 0 {
		<-ctx.Done()
		ms.log.InfoContext(ctx, "Map service stopped.")
		return
	}

	ticker := time.NewTicker(ms.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ms.log.InfoContext(ctx, "Map service stopped.")
			return
		case <-ticker.C:
			ms.log.InfoContext(ctx, "Reloading crash records...")
			if _, err := ms.Refresh(ctx); err != nil {
				ms.log.ErrorContext(ctx, "Reload failed, keeping previous markers", "error", err)
			}
		}
	}
}

// Refresh loads the source into fresh sinks and swaps them in on success.
// When loading fails the current markers stay in place.
func (ms *MapService) Refresh(ctx context.Context) (models.LoadSummary, error) {
	ms.refreshMu.Lock()
	defer ms.refreshMu.Unlock()

	markers, index := sink.NewCollector(), sink.NewIndex()

	summary, err := ms.loader.Load(ctx, ms.source, sink.Multi(markers, index))
	if err != nil {
		return summary, err
	}

	ms.mu.Lock()
	ms.markers, ms.index, ms.last = markers, index, summary
	ms.mu.Unlock()

	if ms.metrics != nil {
		ms.metrics.Markers.Set(float64(markers.Len()))
	}

	if ms.repo != nil {
		copied, errStore := ms.repo.ReplaceMarkers(ctx, ms.source, markers.Coordinates())
		if errStore != nil {
			ms.log.ErrorContext(ctx, "Failed to store markers", "source", ms.source, "error", errStore)
		} else {
			ms.log.DebugContext(ctx, "Markers stored", "source", ms.source, "count", copied)
		}
	}

	return summary, nil
}

// Restore fills the marker set from the repository, for a warm start before the first load.
func (ms *MapService) Restore(ctx context.Context) (int, error) {
	if ms.repo == nil {
		return 0, nil
	}

	coords, err := ms.repo.FetchMarkers(ctx, ms.source)
	if err != nil {
		return 0, err
	}

	markers, index := sink.NewCollector(), sink.NewIndex()
	fanout := sink.Multi(markers, index)
	for _, c := range coords {
		fanout.Add(c)
	}

	ms.mu.Lock()
	ms.markers, ms.index = markers, index
	ms.mu.Unlock()

	if ms.metrics != nil {
		ms.metrics.Markers.Set(float64(len(coords)))
	}

	return len(coords), nil
}

// Markers returns the current marker set in file order.
func (ms *MapService) Markers() []models.Coordinates {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return ms.markers.Coordinates()
}

// Within returns the current markers inside box.
func (ms *MapService) Within(box sink.BoundingBox) ([]models.Coordinates, error) {
	ms.mu.RLock()
	index := ms.index
	ms.mu.RUnlock()

	return index.SearchBox(box)
}

// Nearest returns up to n current markers closest to coords.
func (ms *MapService) Nearest(coords models.Coordinates, n int) []models.Coordinates {
	ms.mu.RLock()
	index := ms.index
	ms.mu.RUnlock()

	return index.Nearest(coords, n)
}

// LastSummary returns the summary of the last successful load.
func (ms *MapService) LastSummary() models.LoadSummary {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return ms.last
}

// RenderMap draws the current markers on a static map.
func (ms *MapService) RenderMap(ctx context.Context) (image.Image, error) {
	if ms.renderer == nil {
		return nil, ErrRenderingDisabled
	}

	return ms.renderer.Render(ctx, ms.Markers())
}
