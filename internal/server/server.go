package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/crashmap/internal/models"
	"github.com/UnknownOlympus/crashmap/internal/render"
	"github.com/UnknownOlympus/crashmap/internal/resource"
	"github.com/UnknownOlympus/crashmap/internal/service"
	"github.com/UnknownOlympus/crashmap/internal/sink"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const (
	defaultNearest = 5
	maxNearest     = 500
)

// MapService is the part of service.MapService the HTTP handlers use.
type MapService interface {
	Refresh(ctx context.Context) (models.LoadSummary, error)
	Markers() []models.Coordinates
	LastSummary() models.LoadSummary
	Within(box sink.BoundingBox) ([]models.Coordinates, error)
	Nearest(coords models.Coordinates, n int) []models.Coordinates
	RenderMap(ctx context.Context) (image.Image, error)
}

// Pinger checks the health of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the marker set, the rendered map and the monitoring endpoints over HTTP.
type Server struct {
	log     *slog.Logger
	svc     MapService
	db      Pinger // optional
	limiter *rate.Limiter
	router  chi.Router
}

// New builds the router. db may be nil; reloadsPerMinute <= 0 disables POST /reload.
func New(log *slog.Logger, svc MapService, reg *prometheus.Registry, db Pinger, reloadsPerMinute int) *Server {
	srv := &Server{log: log, svc: svc, db: db}
	if reloadsPerMinute > 0 {
		srv.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(reloadsPerMinute)), reloadsPerMinute)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", srv.handleHealth)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.Get("/status", srv.handleStatus)
	router.Get("/markers", srv.handleMarkers)
	router.Get("/markers/nearest", srv.handleNearest)
	router.Get("/map.png", srv.handleMap)
	router.Post("/reload", srv.handleReload)

	srv.router = router

	return srv
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	readTimeout := 5
	writeTimeout := 30
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.ErrorContext(ctx, "Server shutdown failed", "error", err)
		}
	}()

	s.log.InfoContext(ctx, "Starting HTTP server", "port", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.log.DebugContext(ctx, "Performing health checks...")

	status, body := http.StatusOK, "OK"
	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			status, body = http.StatusServiceUnavailable, "DB ping failed"
		}
	}

	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		s.log.ErrorContext(ctx, "failed to write reply", "error", err)
	}

	s.log.DebugContext(ctx, "Health checks completed", "status", status)
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("bbox")
	if raw == "" {
		s.writeGeoJSON(w, r, s.svc.Markers())
		return
	}

	box, err := parseBBox(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	coords, err := s.svc.Within(box)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.writeGeoJSON(w, r, coords)
}

func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, errLat := strconv.ParseFloat(query.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(query.Get("lng"), 64)
	origin := models.Coordinates{Latitude: lat, Longitude: lng}
	if errLat != nil || errLng != nil || !origin.Valid() {
		http.Error(w, "lat and lng must be finite numbers", http.StatusBadRequest)
		return
	}

	n := defaultNearest
	if raw := query.Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = min(parsed, maxNearest)
	}

	s.writeGeoJSON(w, r, s.svc.Nearest(origin, n))
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	img, err := s.svc.RenderMap(ctx)
	if errors.Is(err, service.ErrRenderingDisabled) {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to render map", "error", err)
		http.Error(w, "failed to render map", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err = render.WritePNG(w, img); err != nil {
		s.log.ErrorContext(ctx, "failed to write reply", "error", err)
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.limiter == nil {
		http.Error(w, "reloads are disabled", http.StatusForbidden)
		return
	}
	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", "60")
		http.Error(w, "too many reloads", http.StatusTooManyRequests)
		return
	}

	summary, err := s.svc.Refresh(ctx)
	if errors.Is(err, resource.ErrResourceUnavailable) {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if err != nil {
		s.log.ErrorContext(ctx, "Reload failed", "error", err)
		http.Error(w, "reload failed", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, r, newSummaryResponse(summary))
}

// handleStatus reports the summary of the last successful load.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, newSummaryResponse(s.svc.LastSummary()))
}

type summaryResponse struct {
	Source     string `json:"source"`
	Rows       int    `json:"rows"`
	Plotted    int    `json:"plotted"`
	Skipped    int    `json:"skipped"`
	DurationMS int64  `json:"duration_ms"`
}

func newSummaryResponse(summary models.LoadSummary) summaryResponse {
	return summaryResponse{
		Source:     summary.Source,
		Rows:       summary.Rows,
		Plotted:    summary.Plotted,
		Skipped:    summary.Skipped,
		DurationMS: summary.Duration.Milliseconds(),
	}
}

func (s *Server) writeGeoJSON(w http.ResponseWriter, r *http.Request, coords []models.Coordinates) {
	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(render.FeatureCollection(coords)); err != nil {
		s.log.ErrorContext(r.Context(), "failed to write reply", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.ErrorContext(r.Context(), "failed to write reply", "error", err)
	}
}

// parseBBox reads "minLat,minLng,maxLat,maxLng".
func parseBBox(raw string) (sink.BoundingBox, error) {
	const corners = 4

	parts := strings.Split(raw, ",")
	if len(parts) != corners {
		return sink.BoundingBox{}, errors.New("bbox must be minLat,minLng,maxLat,maxLng")
	}

	values := make([]float64, corners)
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return sink.BoundingBox{}, fmt.Errorf("invalid bbox value %q", part)
		}
		values[i] = value
	}

	return sink.BoundingBox{
		SouthWest: models.Coordinates{Latitude: values[0], Longitude: values[1]},
		NorthEast: models.Coordinates{Latitude: values[2], Longitude: values[3]},
	}, nil
}
