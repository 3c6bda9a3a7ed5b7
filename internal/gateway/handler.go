package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/af-corp/promptguard-gateway/internal/auth"
	"github.com/af-corp/promptguard-gateway/internal/config"
	"github.com/af-corp/promptguard-gateway/internal/httputil"
	"github.com/af-corp/promptguard-gateway/internal/policy"
	"github.com/af-corp/promptguard-gateway/internal/scan"
	"github.com/af-corp/promptguard-gateway/internal/types"
)

// Scanner runs one full scan cycle. Satisfied by scan.Orchestrator.
type Scanner interface {
	Scan(ctx context.Context, req *types.ScanRequest) (*types.ScanResponse, error)
}

// Handler holds dependencies for the gateway HTTP handlers.
type Handler struct {
	scanner Scanner
	policy  *policy.Evaluator
	cfg     func() *config.Config
}

func NewHandler(scanner Scanner, evaluator *policy.Evaluator, cfg func() *config.Config) *Handler {
	return &Handler{
		scanner: scanner,
		policy:  evaluator,
		cfg:     cfg,
	}
}

// Scan handles POST /v1/scan
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	scanReq, ok := h.decodeScanRequest(w, r, reqID)
	if !ok {
		return
	}
	if !h.admit(w, r, reqID, scanReq) {
		return
	}

	resp, err := h.scanner.Scan(r.Context(), scanReq)
	if err != nil {
		h.writeScanError(w, reqID, err)
		return
	}

	h.logCompleted(r, reqID, resp, receivedAt)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ScanSingle handles POST /v1/scan/{scanner}: it runs exactly one scanner and
// returns the flat single-scanner result shape.
func (h *Handler) ScanSingle(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	kind, ok := types.ParseScannerKind(chi.URLParam(r, "scanner"))
	if !ok {
		httputil.WriteBadRequestError(w, reqID, "Unknown scanner: "+chi.URLParam(r, "scanner"))
		return
	}

	scanReq, ok := h.decodeScanRequest(w, r, reqID)
	if !ok {
		return
	}
	scanReq.Scanners = []string{string(kind)}
	if !h.admit(w, r, reqID, scanReq) {
		return
	}

	resp, err := h.scanner.Scan(r.Context(), scanReq)
	if err != nil {
		h.writeScanError(w, reqID, err)
		return
	}

	flat := types.FlatScanResult{
		SanitizedPrompt: resp.FinalSanitizedPrompt,
		IsValid:         resp.OverallIsValid,
	}
	for _, sr := range resp.AppliedScannersResults {
		if sr.ScannerName == kind {
			flat.SanitizedPrompt = sr.SanitizedPrompt
			flat.IsValid = sr.IsValid
			flat.RiskScore = sr.RiskScore
			break
		}
	}

	h.logCompleted(r, reqID, resp, receivedAt)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(flat)
}

// decodeScanRequest reads and validates the request body. On failure it has
// already written the error response and returns ok=false.
func (h *Handler) decodeScanRequest(w http.ResponseWriter, r *http.Request, reqID string) (*types.ScanRequest, bool) {
	maxBytes := h.cfg().Scan.MaxPromptBytes
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteBadRequestError(w, reqID, "Request body exceeds maximum size")
			return nil, false
		}
		httputil.WriteBadRequestError(w, reqID, "Failed to read request body")
		return nil, false
	}
	defer r.Body.Close()

	var scanReq types.ScanRequest
	if err := json.Unmarshal(body, &scanReq); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return nil, false
	}
	if scanReq.Prompt == "" {
		httputil.WriteBadRequestError(w, reqID, "prompt is required")
		return nil, false
	}
	return &scanReq, true
}

// admit runs the OPA admission policy. On denial it has already written the
// 403 response and returns false.
func (h *Handler) admit(w http.ResponseWriter, r *http.Request, reqID string, scanReq *types.ScanRequest) bool {
	if h.policy == nil || !h.policy.Enabled() {
		return true
	}

	input := policy.Input{
		Scan: policy.ScanMeta{
			Scanners:     scanReq.Scanners,
			PromptLength: len(scanReq.Prompt),
		},
		Time: policy.Clock{
			Hour: time.Now().UTC().Hour(),
			Day:  time.Now().UTC().Weekday().String(),
		},
	}
	if authInfo, ok := auth.AuthFromContext(r.Context()); ok {
		input.User = policy.Caller{
			ID:   authInfo.UserID,
			Org:  authInfo.OrganizationID,
			Team: authInfo.TeamID,
		}
	}

	allowed, reason, err := h.policy.Evaluate(r.Context(), input)
	if err != nil {
		slog.Error("policy evaluation failed", "request_id", reqID, "error", err)
	}
	if !allowed {
		slog.Warn("scan denied by policy", "request_id", reqID, "reason", reason)
		httputil.WritePolicyDeniedError(w, reqID, "Scan denied by policy: "+reason)
		return false
	}
	return true
}

func (h *Handler) writeScanError(w http.ResponseWriter, reqID string, err error) {
	if errors.Is(err, scan.ErrEmptyPrompt) {
		httputil.WriteBadRequestError(w, reqID, "prompt is required")
		return
	}
	slog.Error("scan failed", "request_id", reqID, "error", err)
	httputil.WriteInternalError(w, reqID, "Internal error during scan")
}

func (h *Handler) logCompleted(r *http.Request, reqID string, resp *types.ScanResponse, receivedAt time.Time) {
	orgID := ""
	if authInfo, ok := auth.AuthFromContext(r.Context()); ok {
		orgID = authInfo.OrganizationID
	}
	slog.Info("scan completed",
		"request_id", reqID,
		"overall_is_valid", resp.OverallIsValid,
		"scanners", len(resp.AppliedScannersResults),
		"duration_ms", time.Since(receivedAt).Milliseconds(),
		"org_id", orgID,
	)
}
