package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ScansTotal counts finished scans by engine and outcome
	// (ok, no_teeth, no_json, schema_mismatch, stream_error, image_error, canceled).
	ScansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dental",
		Name:      "scans_total",
		Help:      "Total number of scans, labeled by engine and result.",
	}, []string{"engine", "result"})

	ScanDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dental",
		Name:      "scan_duration_seconds",
		Help:      "End-to-end time of a scan from image preparation to decoded report.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"engine"})

	// ExtractionFallbackTotal counts responses whose JSON braces never balanced.
	ExtractionFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dental",
		Name:      "json_extraction_fallback_total",
		Help:      "Total number of model responses decoded with the greedy first/last brace fallback.",
	})

	ScansInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dental",
		Name:      "scans_in_flight",
		Help:      "Current number of scans being processed.",
	})

	// RejectedBusyTotal counts scans refused because the caller already had one running.
	RejectedBusyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dental",
		Name:      "scans_rejected_busy_total",
		Help:      "Total number of scan requests rejected while another scan for the same caller was running.",
	}, []string{"boundary"})
)

// Register registers the metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ScansTotal,
			ScanDurationSeconds,
			ExtractionFallbackTotal,
			ScansInFlight,
			RejectedBusyTotal,
		)
	})
}
