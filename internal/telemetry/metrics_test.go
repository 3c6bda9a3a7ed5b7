package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	if m.ScanTotal == nil {
		t.Error("ScanTotal should not be nil")
	}
	if m.ScanDurationMs == nil {
		t.Error("ScanDurationMs should not be nil")
	}
	if m.ScannerTriggered == nil {
		t.Error("ScannerTriggered should not be nil")
	}
	if m.BackendFailureTotal == nil {
		t.Error("BackendFailureTotal should not be nil")
	}
	if m.RateLimitHitTotal == nil {
		t.Error("RateLimitHitTotal should not be nil")
	}
}

func TestRecordScan(t *testing.T) {
	// Fresh collectors so the default registry is not polluted
	scanTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_promptguard_scan_total",
		Help: "Test counter",
	}, []string{"path", "verdict"})

	durationMs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "test_promptguard_scan_duration_ms",
		Help:    "Test histogram",
		Buckets: []float64{10, 100, 1000},
	}, []string{"path"})

	m := &Metrics{ScanTotal: scanTotal, ScanDurationMs: durationMs}
	m.RecordScan("fallback", "invalid", 12)

	counter, err := scanTotal.GetMetricWithLabelValues("fallback", "invalid")
	if err != nil {
		t.Fatalf("failed to get metric: %v", err)
	}
	var metric dto.Metric
	counter.Write(&metric)
	if *metric.Counter.Value != 1 {
		t.Errorf("expected scan count 1, got %v", *metric.Counter.Value)
	}
}

func TestRecordBackendFailure(t *testing.T) {
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_backend_failure",
		Help: "Test",
	}, []string{"reason"})

	m := &Metrics{BackendFailureTotal: failures}
	m.RecordBackendFailure("timeout")
	m.RecordBackendFailure("timeout")

	counter, _ := failures.GetMetricWithLabelValues("timeout")
	var metric dto.Metric
	counter.Write(&metric)
	if *metric.Counter.Value != 2 {
		t.Errorf("expected failure count 2, got %v", *metric.Counter.Value)
	}
}

func TestRecordScannerTriggered(t *testing.T) {
	triggered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_scanner_triggered",
		Help: "Test",
	}, []string{"scanner"})

	m := &Metrics{ScannerTriggered: triggered}
	m.RecordScannerTriggered("secrets")

	counter, _ := triggered.GetMetricWithLabelValues("secrets")
	var metric dto.Metric
	counter.Write(&metric)
	if *metric.Counter.Value != 1 {
		t.Errorf("expected trigger count 1, got %v", *metric.Counter.Value)
	}
}
