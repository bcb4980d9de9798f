package metrics

import (
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

// MetricsManager holds the service's Prometheus collectors.
type MetricsManager struct {
	Registry             *prometheus.Registry
	ListingsCreatedTotal prometheus.Counter
	ListingUpdatesTotal  prometheus.Counter
	ListingDeletesTotal  prometheus.Counter
	ImagesUploadedTotal  prometheus.Counter
	ReconcileRepairs     prometheus.Counter
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestLatency   *prometheus.HistogramVec
}

func NewMetricsManager(serviceName string) *MetricsManager {
	namespace := strings.ReplaceAll(serviceName, "-", "_")
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		ListingsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_created_total",
			Help:      "Total number of listings created.",
		}),
		ListingUpdatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_updates_total",
			Help:      "Total number of listing field updates.",
		}),
		ListingDeletesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_deletes_total",
			Help:      "Total number of listings soft deleted.",
		}),
		ImagesUploadedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_uploaded_total",
			Help:      "Total number of images stored.",
		}),
		ReconcileRepairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_repairs_total",
			Help:      "Total number of on-demand reconciliations that changed a listing.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_latency_seconds",
			Help:      "Latency of HTTP requests by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.ListingsCreatedTotal,
		m.ListingUpdatesTotal,
		m.ListingDeletesTotal,
		m.ImagesUploadedTotal,
		m.ReconcileRepairs,
		m.HTTPRequestsTotal,
		m.HTTPRequestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// NewMetricsServer returns the HTTP server exposing /metrics, or nil when
// no port is configured.
func NewMetricsServer(port string, m *MetricsManager) *http.Server {
	if port == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{Addr: ":" + port, Handler: mux}
}

// StartMetricsServer blocks serving srv until it is shut down.
func StartMetricsServer(srv *http.Server, appLogger *logger.Logger) {
	if srv == nil {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return
	}
	appLogger.Info("Prometheus metrics server starting", zap.String("addr", srv.Addr), zap.String("path", "/metrics"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLogger.Error("Prometheus metrics server failed", zap.Error(err))
	}
}
