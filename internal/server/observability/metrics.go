// Package observability exposes the server's Prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	rpcRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthsync",
		Subsystem: "grpc",
		Name:      "requests_total",
		Help:      "gRPC requests handled, by method and status code.",
	}, []string{"method", "code"})
	rpcDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "healthsync",
		Subsystem: "grpc",
		Name:      "request_duration_seconds",
		Help:      "Duration of unary gRPC requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
	activeWatchers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "healthsync",
		Subsystem: "sync",
		Name:      "active_watchers",
		Help:      "Open Watch streams.",
	})
	documentsStored = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "healthsync",
		Subsystem: "sync",
		Name:      "documents_stored_total",
		Help:      "Envelopes written to storage.",
	})
	lastStoredGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "healthsync",
		Subsystem: "sync",
		Name:      "last_document_stored_timestamp_seconds",
		Help:      "Unix timestamp of the most recent envelope write.",
	})
)

func init() {
	prometheus.MustRegister(rpcRequests, rpcDuration, activeWatchers, documentsStored, lastStoredGauge)
}

// RecordRPC counts one finished call. Duration is observed for unary calls
// only; pass a negative d to skip it.
func RecordRPC(method, code string, d time.Duration) {
	rpcRequests.WithLabelValues(method, code).Inc()
	if d >= 0 {
		rpcDuration.WithLabelValues(method).Observe(d.Seconds())
	}
}

func WatcherOpened() { activeWatchers.Inc() }
func WatcherClosed() { activeWatchers.Dec() }

// RecordDocumentStored bumps the write counter and the last-write gauge.
func RecordDocumentStored(ts time.Time) {
	documentsStored.Inc()
	if ts.IsZero() {
		return
	}
	lastStoredGauge.Set(float64(ts.Unix()))
}
