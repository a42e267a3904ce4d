package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "web", Name: "http_requests_total", Help: "HTTP requests served",
	}, []string{"method", "route", "status"})
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "web", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	pageRendersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "web", Name: "page_renders_total", Help: "Page renders by locale and outcome",
	}, []string{"locale", "outcome"})
	cmsFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "web", Name: "cms_fetch_duration_seconds", Help: "Latency of content provider fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource", "result"})
	staticPages = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "web", Name: "static_pages", Help: "Pages currently held in the static page store",
	})
)

var registerMetricsOnce sync.Once

func registerCollectors() {
	registerMetricsOnce.Do(func() {
		registry.MustRegister(httpRequestsTotal, httpRequestDuration, pageRendersTotal, cmsFetchDuration, staticPages)
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// MetricsHandler exposes the site registry in the Prometheus text format.
func MetricsHandler() http.Handler {
	registerCollectors()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveRequest records a completed HTTP request.
func ObserveRequest(method, route string, status int, latency time.Duration) {
	registerCollectors()
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// ObservePageRender counts a served page by outcome (static, generated,
// dynamic, fallback, redirect, not_found, error).
func ObservePageRender(locale, outcome string) {
	registerCollectors()
	pageRendersTotal.WithLabelValues(locale, outcome).Inc()
}

// ObserveCMSFetch records the latency of a content provider call.
func ObserveCMSFetch(resource string, err error, latency time.Duration) {
	registerCollectors()
	result := "ok"
	if err != nil {
		result = "error"
	}
	cmsFetchDuration.WithLabelValues(resource, result).Observe(latency.Seconds())
}

// SetStaticPages publishes the static page store size.
func SetStaticPages(n int) {
	registerCollectors()
	staticPages.Set(float64(n))
}
