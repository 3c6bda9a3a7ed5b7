package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/af-corp/promptguard-gateway/internal/config"
	"github.com/af-corp/promptguard-gateway/internal/types"
)

// FailureReason classifies why a remote scan attempt did not yield a usable
// payload.
type FailureReason string

const (
	FailureTimeout       FailureReason = "timeout"
	FailureTransport     FailureReason = "transport-error"
	FailureStatus        FailureReason = "non-success-status"
	FailureMalformedBody FailureReason = "malformed-body"
	FailureCircuitOpen   FailureReason = "circuit-open"
)

// Outcome is the tagged result of one remote scan attempt: either a raw JSON
// payload or a failure reason, never both.
type Outcome struct {
	Payload    json.RawMessage
	Reason     FailureReason
	StatusCode int
	Err        error
}

// Success reports whether the attempt produced a payload.
func (o Outcome) Success() bool { return o.Reason == "" }

func failure(reason FailureReason, err error) Outcome {
	return Outcome{Reason: reason, Err: err}
}

// Client issues single-shot scan calls to the remote scanning backend. Each
// call is bounded by the configured deadline and is never retried: a slow or
// down backend must degrade to the local fallback instead of adding latency.
type Client struct {
	httpClient *http.Client
	cfg        func() config.BackendConfig
}

// NewClient creates a remote scan client. The per-call deadline comes from
// config, so the underlying http.Client carries no timeout of its own.
func NewClient(cfg func() config.BackendConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        16,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

// Scan POSTs the request to the backend's comprehensive scan endpoint and
// returns the raw response payload. Exceeding the deadline resolves to
// Failure(timeout) rather than blocking the caller.
func (c *Client) Scan(ctx context.Context, req *types.ScanRequest) Outcome {
	cfg := c.cfg()

	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return failure(FailureTransport, err)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, cfg.BaseURL+cfg.ScanPath, bytes.NewReader(body))
	if err != nil {
		return failure(FailureTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return failure(FailureTimeout, err)
		}
		return failure(FailureTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return Outcome{Reason: FailureStatus, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return failure(FailureTimeout, err)
		}
		return failure(FailureMalformedBody, err)
	}

	if !json.Valid(data) {
		return Outcome{Reason: FailureMalformedBody}
	}

	return Outcome{Payload: data}
}
