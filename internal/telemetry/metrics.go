package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the PromptGuard gateway.
type Metrics struct {
	ScanTotal           *prometheus.CounterVec
	ScanDurationMs      *prometheus.HistogramVec
	ScannerTriggered    *prometheus.CounterVec
	BackendFailureTotal *prometheus.CounterVec
	CircuitStateGauge   prometheus.Gauge
	RateLimitHitTotal   *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ScanTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "promptguard_scan_total",
			Help: "Total number of scans processed, by path (remote or fallback) and verdict.",
		}, []string{"path", "verdict"}),

		ScanDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promptguard_scan_duration_ms",
			Help:    "End-to-end scan duration in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 3000, 5000},
		}, []string{"path"}),

		ScannerTriggered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "promptguard_scanner_triggered_total",
			Help: "Total times a scanner flagged a prompt as invalid.",
		}, []string{"scanner"}),

		BackendFailureTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "promptguard_backend_failure_total",
			Help: "Remote scanning backend failures by reason.",
		}, []string{"reason"}),

		CircuitStateGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "promptguard_backend_circuit_state",
			Help: "Backend circuit breaker state (0=closed, 1=open, 2=half_open).",
		}),

		RateLimitHitTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "promptguard_ratelimit_hit_total",
			Help: "Requests rejected by rate limiting, by dimension.",
		}, []string{"dimension", "org"}),
	}
}

// RecordScan records a completed scan.
func (m *Metrics) RecordScan(path, verdict string, durationMs float64) {
	m.ScanTotal.WithLabelValues(path, verdict).Inc()
	m.ScanDurationMs.WithLabelValues(path).Observe(durationMs)
}

// RecordScannerTriggered records a scanner flagging a prompt.
func (m *Metrics) RecordScannerTriggered(scanner string) {
	m.ScannerTriggered.WithLabelValues(scanner).Inc()
}

// RecordBackendFailure records a failed remote scan attempt.
func (m *Metrics) RecordBackendFailure(reason string) {
	m.BackendFailureTotal.WithLabelValues(reason).Inc()
}

// RecordCircuitState records the backend breaker state.
func (m *Metrics) RecordCircuitState(state int) {
	m.CircuitStateGauge.Set(float64(state))
}

// RecordRateLimitHit records a rate-limited request.
func (m *Metrics) RecordRateLimitHit(dimension, org string) {
	m.RateLimitHitTotal.WithLabelValues(dimension, org).Inc()
}
