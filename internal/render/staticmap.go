package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/UnknownOlympus/crashmap/internal/metrics"
	"github.com/UnknownOlympus/crashmap/internal/models"
	"googlemaps.github.io/maps"
)

// Defaults of the rendered viewport: New York City at street level.
const (
	DefaultCenterLat  = 40.7128
	DefaultCenterLng  = -74.0060
	DefaultZoom       = 12
	DefaultSize       = "640x640"
	DefaultMaxMarkers = 150
	markerColor       = "red"
	markerSize        = "tiny"
)

// ErrMissingAPIKey is returned when a static map renderer is requested without an API key.
var ErrMissingAPIKey = errors.New("API key is required for the static map renderer")

// StaticMapClient is the part of the Google Maps client used for rendering.
type StaticMapClient interface {
	StaticMap(ctx context.Context, r *maps.StaticMapRequest) (image.Image, error)
}

// MapConfig holds configuration for creating a static map renderer.
type MapConfig struct {
	APIKey     string             // API key with Maps Static API access
	Center     models.Coordinates // Center of the viewport
	Zoom       int                // Zoom level of the viewport
	Size       string             // Image size, {width}x{height}
	MaxMarkers int                // Upper bound on markers per image
	Logger     *slog.Logger       // Logger for the renderer
}

// StaticMapRenderer draws markers on a Google static map image.
type StaticMapRenderer struct {
	client  StaticMapClient
	cfg     MapConfig
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewStaticMapRenderer builds a Google Maps client from config and wraps it in a renderer.
func NewStaticMapRenderer(config MapConfig, appMetrics *metrics.Metrics) (*StaticMapRenderer, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := maps.NewClient(maps.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewStaticMapRendererWithClient(client, config, appMetrics), nil
}

// NewStaticMapRendererWithClient creates a renderer around an existing client.
// Zero values in config are replaced with the package defaults.
func NewStaticMapRendererWithClient(
	client StaticMapClient,
	config MapConfig,
	appMetrics *metrics.Metrics,
) *StaticMapRenderer {
	if config.Center == (models.Coordinates{}) {
		config.Center = models.Coordinates{Latitude: DefaultCenterLat, Longitude: DefaultCenterLng}
	}
	if config.Zoom <= 0 {
		config.Zoom = DefaultZoom
	}
	if config.Size == "" {
		config.Size = DefaultSize
	}
	if config.MaxMarkers <= 0 {
		config.MaxMarkers = DefaultMaxMarkers
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &StaticMapRenderer{client: client, cfg: config, log: config.Logger, metrics: appMetrics}
}

// Request builds the static map request for coords. Markers past MaxMarkers are dropped.
func (sr *StaticMapRenderer) Request(coords []models.Coordinates) *maps.StaticMapRequest {
	req := &maps.StaticMapRequest{
		Center: formatLatLng(sr.cfg.Center),
		Zoom:   sr.cfg.Zoom,
		Size:   sr.cfg.Size,
	}

	if len(coords) > sr.cfg.MaxMarkers {
		coords = coords[:sr.cfg.MaxMarkers]
	}
	if len(coords) == 0 {
		return req
	}

	locations := make([]maps.LatLng, len(coords))
	for i, c := range coords {
		locations[i] = maps.LatLng{Lat: c.Latitude, Lng: c.Longitude}
	}
	req.Markers = []maps.Marker{{Color: markerColor, Size: markerSize, Location: locations}}

	return req
}

// Render fetches a map image with one marker per coordinate.
func (sr *StaticMapRenderer) Render(ctx context.Context, coords []models.Coordinates) (image.Image, error) {
	if len(coords) > sr.cfg.MaxMarkers {
		sr.log.WarnContext(ctx, "Too many markers for a static map, truncating",
			"markers", len(coords), "max_markers", sr.cfg.MaxMarkers)
	}

	req := sr.Request(coords)
	sr.log.DebugContext(ctx, "Rendering static map", "center", req.Center, "zoom", req.Zoom, "markers", len(coords))

	startTime := time.Now()
	img, err := sr.client.StaticMap(ctx, req)
	if sr.metrics != nil {
		sr.metrics.RenderSeconds.Observe(time.Since(startTime).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render static map: %w", err)
	}

	return img, nil
}

// WritePNG encodes img as PNG into w.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode map image: %w", err)
	}

	return nil
}

func formatLatLng(c models.Coordinates) string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}
