// Package telemetry exposes Prometheus metrics for the catalog service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	feedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_feed_requests_total",
			Help: "Total number of feed requests, labeled by category.",
		},
		[]string{"category"},
	)

	likesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_likes_total",
			Help: "Total number of like calls, labeled by result.",
		},
		[]string{"result"},
	)

	reaperProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reaper_probes_total",
			Help: "Total number of link probes, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	reaperDeletionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_reaper_deletions_total",
			Help: "Total number of entries deleted by the reaper.",
		},
	)

	ingestCommitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_ingest_commits_total",
			Help: "Total number of committed ingestion sessions.",
		},
	)

	ingestMediaFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_ingest_media_failures_total",
			Help: "Total number of media items dropped after exhausting push retries.",
		},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)
)

// ObserveFeedRequest counts one feed request for a canonical category.
func ObserveFeedRequest(category string) {
	feedRequestsTotal.WithLabelValues(category).Inc()
}

// ObserveLike counts one like call; result is "created", "duplicate" or
// "not_found".
func ObserveLike(result string) {
	likesTotal.WithLabelValues(result).Inc()
}

// ObserveProbe counts one probe outcome.
func ObserveProbe(outcome string) {
	reaperProbesTotal.WithLabelValues(outcome).Inc()
}

// ObserveReaperDeletion counts one reaped entry.
func ObserveReaperDeletion() {
	reaperDeletionsTotal.Inc()
}

// ObserveCommit counts one committed ingestion session.
func ObserveCommit() {
	ingestCommitsTotal.Inc()
}

// ObserveMediaFailure counts one dropped media item.
func ObserveMediaFailure() {
	ingestMediaFailuresTotal.Inc()
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latencies per chi route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequestDurationSeconds.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.status)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
