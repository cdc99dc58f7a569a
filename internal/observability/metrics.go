package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sales_dashboard"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	RecomputeTime   prometheus.Histogram
	FilteredRows    prometheus.Histogram
	DatasetRows     prometheus.Gauge
	DatasetLoads    *prometheus.CounterVec
	DatasetLoadedAt prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		RecomputeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Time spent filtering and aggregating one selection.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		FilteredRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filtered_rows",
			Help:      "Rows matched by a selection.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the loaded table.",
		}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset loads and reloads by result.",
		}, []string{"result"}),
		DatasetLoadedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_loaded_timestamp_seconds",
			Help:      "Unix time the current table was loaded.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.RecomputeTime,
		m.FilteredRows,
		m.DatasetRows,
		m.DatasetLoads,
		m.DatasetLoadedAt,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveRecompute(rows int, d time.Duration) {
	m.RecomputeTime.Observe(d.Seconds())
	m.FilteredRows.Observe(float64(rows))
}

func (m *Metrics) ObserveLoad(rows int, loadedAt time.Time, err error) {
	if err != nil {
		m.DatasetLoads.WithLabelValues("error").Inc()
		return
	}
	m.DatasetLoads.WithLabelValues("ok").Inc()
	m.DatasetRows.Set(float64(rows))
	m.DatasetLoadedAt.Set(float64(loadedAt.Unix()))
}
