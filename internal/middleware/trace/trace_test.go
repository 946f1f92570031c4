package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"insuralytics/internal/log"
)

func TestWrapPropagatesRequestID(t *testing.T) {
	var seen string
	m := NewMiddleware(nil)
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "upstream-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen != "upstream-1" || rr.Header().Get(HeaderRequestID) != "upstream-1" {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rr.Header().Get(HeaderRequestID))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if seen == "" || seen == "upstream-1" {
		t.Fatalf("expected generated request id, got %q", seen)
	}
}

func TestWrapLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(log.NewWithWriter(&buf, slog.LevelInfo, log.ComponentOps))
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	out := buf.String()
	if strings.Contains(out, "path=/ok") {
		t.Fatalf("successful request logged above debug: %s", out)
	}
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "status_code=500") {
		t.Fatalf("failure not logged: %s", out)
	}
	if got := m.GetMetrics(); got.TotalRequests != 2 || got.FailedRequests != 1 {
		t.Fatalf("metrics = %+v", got)
	}
}
