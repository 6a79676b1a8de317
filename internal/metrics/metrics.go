// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, route pattern and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vectora_requests_total",
		Help: "Total HTTP requests processed.",
	}, []string{"method", "route", "status"})

	// RequestDuration tracks latency by route pattern. For /process it covers the whole stream.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vectora_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// RequestsInFlight tracks requests currently being served, streams included.
	RequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vectora_requests_in_flight",
		Help: "Number of HTTP requests currently in flight.",
	})

	// FragmentsTotal counts fragments relayed to callers.
	FragmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vectora_fragments_total",
		Help: "Stream fragments relayed to callers by provider and kind.",
	}, []string{"provider", "kind"})

	// StreamDuration tracks how long a fact-check stream stays open.
	StreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vectora_stream_duration_seconds",
		Help:    "Time from adapter selection to end of stream.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider", "outcome"})

	// DetectorFallbacks counts /ai-check answers that fell back to the neutral verdict.
	DetectorFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vectora_detector_fallbacks_total",
		Help: "Detector calls answered with the neutral default.",
	}, []string{"reason"})
)
