package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pablomtz/saulo-agent/internal/brain"
	"github.com/pablomtz/saulo-agent/internal/chat"
	"github.com/pablomtz/saulo-agent/internal/store"
	"github.com/pablomtz/saulo-agent/internal/types"
)

func newTestHandler() http.Handler {
	st := store.NewMemoryStore(0)
	fallback := brain.NewFallbackResponder(func(n int) int { return 0 })
	// nil model keeps responses deterministic: every turn uses the fallback.
	orchestrator := chat.New(st, nil, nil, fallback, chat.Options{})
	return New(orchestrator).Handler()
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestConverseEndpoint(t *testing.T) {
	handler := newTestHandler()

	rec := postJSON(t, handler, "/conversar", map[string]string{
		"user_id": "u1",
		"text":    "hola",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result chat.TurnResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.State != types.StateBase {
		t.Fatalf("state = %s, want base", result.State)
	}
	if !strings.Contains(result.Text, "«hola»") {
		t.Fatalf("degraded reply must quote the message, got %s", result.Text)
	}
}

func TestConverseEndpointCommand(t *testing.T) {
	handler := newTestHandler()

	rec := postJSON(t, handler, "/conversar", map[string]string{
		"user_id": "u1",
		"command": "/debug",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var result chat.TurnResult
	json.Unmarshal(rec.Body.Bytes(), &result)
	if !strings.HasPrefix(result.Text, "DEBUG: ") {
		t.Fatalf("unexpected command reply: %s", result.Text)
	}
}

func TestConverseEndpointBadBody(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/conversar", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	handler := newTestHandler()

	postJSON(t, handler, "/conversar", map[string]string{"user_id": "u1", "text": "hola"})

	req := httptest.NewRequest(http.MethodGet, "/estado/u1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var report chat.StatusReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Record.UserID != "u1" {
		t.Fatalf("record user = %s, want u1", report.Record.UserID)
	}
	if len(report.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(report.History))
	}
}

func TestResetEndpoint(t *testing.T) {
	handler := newTestHandler()

	rec := postJSON(t, handler, "/reset/u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "resetado a estado BASE") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCORSHeaders(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin = %q, want *", got)
	}
}
