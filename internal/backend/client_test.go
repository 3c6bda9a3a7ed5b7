package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/af-corp/promptguard-gateway/internal/config"
	"github.com/af-corp/promptguard-gateway/internal/types"
)

func clientFor(url string, timeout time.Duration) *Client {
	return NewClient(func() config.BackendConfig {
		return config.BackendConfig{
			BaseURL:  url,
			ScanPath: "/scan/comprehensive",
			Timeout:  timeout,
		}
	})
}

func TestClient_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scan/comprehensive" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %s", ct)
		}
		w.Write([]byte(`{"sanitized_prompt":"ok","is_valid":true,"risk_score":0}`))
	}))
	defer srv.Close()

	c := clientFor(srv.URL, time.Second)
	outcome := c.Scan(context.Background(), &types.ScanRequest{Prompt: "hello"})

	if !outcome.Success() {
		t.Fatalf("expected success, got reason=%s err=%v", outcome.Reason, outcome.Err)
	}
	if len(outcome.Payload) == 0 {
		t.Error("expected non-empty payload")
	}
}

func TestClient_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := clientFor(srv.URL, 50*time.Millisecond)

	start := time.Now()
	outcome := c.Scan(context.Background(), &types.ScanRequest{Prompt: "hello"})
	elapsed := time.Since(start)

	if outcome.Success() {
		t.Fatal("expected failure")
	}
	if outcome.Reason != FailureTimeout {
		t.Errorf("expected timeout reason, got %s", outcome.Reason)
	}
	if elapsed > time.Second {
		t.Errorf("deadline not enforced: call took %s", elapsed)
	}
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := clientFor(srv.URL, time.Second)
	outcome := c.Scan(context.Background(), &types.ScanRequest{Prompt: "hello"})

	if outcome.Reason != FailureStatus {
		t.Errorf("expected non-success-status reason, got %s", outcome.Reason)
	}
	if outcome.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", outcome.StatusCode)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sanitized_prompt": trailing garbage`))
	}))
	defer srv.Close()

	c := clientFor(srv.URL, time.Second)
	outcome := c.Scan(context.Background(), &types.ScanRequest{Prompt: "hello"})

	if outcome.Reason != FailureMalformedBody {
		t.Errorf("expected malformed-body reason, got %s", outcome.Reason)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := clientFor(srv.URL, time.Second)
	outcome := c.Scan(context.Background(), &types.ScanRequest{Prompt: "hello"})

	if outcome.Reason != FailureTransport {
		t.Errorf("expected transport-error reason, got %s", outcome.Reason)
	}
	if outcome.Err == nil {
		t.Error("expected underlying error to be recorded")
	}
}

func TestClient_CallerCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := clientFor(srv.URL, 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	outcome := c.Scan(ctx, &types.ScanRequest{Prompt: "hello"})
	if outcome.Success() {
		t.Fatal("expected failure after caller cancellation")
	}
	// Cancellation before the deadline surfaces as a transport failure.
	if outcome.Reason != FailureTransport {
		t.Errorf("expected transport-error reason, got %s", outcome.Reason)
	}
}
