package scan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/af-corp/promptguard-gateway/internal/backend"
	"github.com/af-corp/promptguard-gateway/internal/config"
	"github.com/af-corp/promptguard-gateway/internal/scanner"
	"github.com/af-corp/promptguard-gateway/internal/telemetry"
	"github.com/af-corp/promptguard-gateway/internal/types"
)

// ErrEmptyPrompt is returned when a scan request carries no prompt.
var ErrEmptyPrompt = errors.New("prompt is required")

const (
	pathRemote   = "remote"
	pathFallback = "fallback"
)

// RemoteScanner issues one bounded-time scan call to the remote backend.
type RemoteScanner interface {
	Scan(ctx context.Context, req *types.ScanRequest) backend.Outcome
}

// Orchestrator runs one scan: remote backend first, local heuristic bank when
// the backend is unavailable or returns an incompatible shape. All backend
// failures are swallowed here; the caller only ever sees a complete response
// or an input error.
type Orchestrator struct {
	remote  RemoteScanner
	breaker *backend.CircuitBreaker
	bank    *scanner.Bank
	metrics *telemetry.Metrics
	scanCfg func() config.ScanConfig
}

// NewOrchestrator wires a scan orchestrator. breaker and metrics may be nil.
func NewOrchestrator(remote RemoteScanner, breaker *backend.CircuitBreaker, bank *scanner.Bank, metrics *telemetry.Metrics, scanCfg func() config.ScanConfig) *Orchestrator {
	return &Orchestrator{
		remote:  remote,
		breaker: breaker,
		bank:    bank,
		metrics: metrics,
		scanCfg: scanCfg,
	}
}

// Scan performs one full scan cycle and aggregation. The only error it
// returns is ErrEmptyPrompt; everything the backend can do wrong degrades to
// the local fallback instead.
func (o *Orchestrator) Scan(ctx context.Context, req *types.ScanRequest) (*types.ScanResponse, error) {
	if req == nil || req.Prompt == "" {
		return nil, ErrEmptyPrompt
	}

	start := time.Now()
	scanners := types.NormalizeScanners(req.Scanners)
	outbound := o.withDefaults(req, scanners)

	outcome := o.attemptRemote(ctx, outbound)
	if outcome.Success() {
		if resp, ok := decodeUnified(outcome.Payload); ok {
			o.recordScan(pathRemote, resp, start)
			return resp, nil
		}
		results, finalSanitized := normalize(outcome.Payload, scanners, req.Prompt)
		resp := aggregate(req.Prompt, finalSanitized, results)
		o.recordScan(pathRemote, resp, start)
		return resp, nil
	}

	slog.Warn("remote scan unavailable, using local fallback",
		"reason", string(outcome.Reason),
		"status", outcome.StatusCode,
		"error", outcome.Err,
	)
	if o.metrics != nil {
		o.metrics.RecordBackendFailure(string(outcome.Reason))
	}

	resp := o.runFallback(req.Prompt, scanners, outbound)
	o.recordScan(pathFallback, resp, start)
	return resp, nil
}

// attemptRemote makes at most one backend call, gated by the circuit breaker.
func (o *Orchestrator) attemptRemote(ctx context.Context, req *types.ScanRequest) backend.Outcome {
	if o.breaker != nil && !o.breaker.Allow() {
		return backend.Outcome{Reason: backend.FailureCircuitOpen}
	}

	outcome := o.remote.Scan(ctx, req)
	if o.breaker != nil {
		if outcome.Success() {
			o.breaker.RecordSuccess()
		} else {
			o.breaker.RecordFailure()
		}
		if o.metrics != nil {
			o.metrics.RecordCircuitState(int(o.breaker.State()))
		}
	}
	return outcome
}

// runFallback chains the local bank over the requested scanners: each
// scanner's input is the output of the previous one, so redactions made by
// anonymize are never reintroduced downstream.
func (o *Orchestrator) runFallback(originalPrompt string, scanners []types.ScannerKind, req *types.ScanRequest) *types.ScanResponse {
	cfg := scanner.Config{
		BannedSubstrings: req.BannedSubstringsList,
		RegexPatterns:    req.RegexPatternsList,
	}

	current := originalPrompt
	results := make([]types.ScannerResult, 0, len(scanners))
	for _, kind := range scanners {
		result := o.bank.Scan(kind, current, cfg)
		results = append(results, result)
		current = result.SanitizedPrompt
	}

	return aggregate(originalPrompt, current, results)
}

// withDefaults fills gateway-side scan defaults into the outbound request so
// the backend sees the same configuration the local bank would.
func (o *Orchestrator) withDefaults(req *types.ScanRequest, scanners []types.ScannerKind) *types.ScanRequest {
	out := *req
	out.Scanners = make([]string, len(scanners))
	for i, kind := range scanners {
		out.Scanners[i] = string(kind)
	}

	if o.scanCfg != nil {
		cfg := o.scanCfg()
		if len(out.BannedSubstringsList) == 0 {
			out.BannedSubstringsList = cfg.DefaultBannedSubstrings
		}
		if len(out.RegexPatternsList) == 0 {
			out.RegexPatternsList = cfg.DefaultRegexPatterns
		}
	}
	return &out
}

func (o *Orchestrator) recordScan(path string, resp *types.ScanResponse, start time.Time) {
	if o.metrics == nil {
		return
	}
	verdict := "valid"
	if !resp.OverallIsValid {
		verdict = "invalid"
	}
	o.metrics.RecordScan(path, verdict, float64(time.Since(start).Milliseconds()))
	for _, r := range resp.AppliedScannersResults {
		if !r.IsValid {
			o.metrics.RecordScannerTriggered(string(r.ScannerName))
		}
	}
}
