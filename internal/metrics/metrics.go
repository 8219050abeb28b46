package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load outcome labels for LoadsTotal.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

type Metrics struct {
	LoadsTotal     *prometheus.CounterVec
	RowsRead       prometheus.Counter
	RowsSkipped    prometheus.Counter
	MarkersPlotted prometheus.Counter
	LoadSeconds    prometheus.Histogram
	Markers        prometheus.Gauge
	RenderSeconds  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		LoadsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "crashmap_loads_total",
			Help: "Total number of load passes over the crash records resource.",
		}, []string{"status"}),
		RowsRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "crashmap_rows_read_total",
			Help: "Total number of non-empty data rows read after the header.",
		}),
		RowsSkipped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "crashmap_rows_skipped_total",
			Help: "Total number of data rows dropped because a coordinate field did not parse.",
		}),
		MarkersPlotted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "crashmap_markers_plotted_total",
			Help: "Total number of coordinates handed to marker sinks.",
		}),
		LoadSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "crashmap_load_duration_seconds",
			Help:    "Duration of a load pass, resource fetch included.",
			Buckets: prometheus.DefBuckets,
		}),
		Markers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "crashmap_markers",
			Help: "Number of markers currently on the map.",
		}),
		RenderSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "crashmap_render_duration_seconds",
			Help:    "Duration of requests to the static map provider.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
