package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PreviewsTotal counts preview requests by connector id and outcome.
	PreviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_previews_total",
			Help: "Number of portfolio preview requests processed.",
		},
		[]string{"connector", "outcome"},
	)

	// ProviderCallsTotal counts outbound provider calls by provider and outcome.
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_provider_calls_total",
			Help: "Number of outbound provider API calls.",
		},
		[]string{"provider", "outcome"},
	)

	// ScanDurationSeconds observes wall-clock duration of wallet scans.
	ScanDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portfolio_scan_duration_seconds",
			Help:    "Duration of wallet balance scans.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once from main.
func MustRegisterMetrics() {
	prometheus.MustRegister(PreviewsTotal, ProviderCallsTotal, ScanDurationSeconds)
}
