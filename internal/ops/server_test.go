package ops

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"insuralytics/internal/cache"
	"insuralytics/internal/core"
	"insuralytics/internal/target"
)

type fakeDashboard struct {
	records int
	version *target.Version
}

func (f fakeDashboard) RecordCount() int                { return f.records }
func (f fakeDashboard) CurrentVersion() *target.Version { return f.version }
func (f fakeDashboard) CacheStats() cache.Stats {
	return cache.Stats{Name: "kpi_series", Hits: 3, Misses: 1, HitRate: 0.75, Entries: 1}
}

func newTestServer(t *testing.T, d Dashboard) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "ops_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()
	return NewServer(":0", d, reg, nil), reg
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz status=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "ops_test_total 1") {
		t.Fatalf("metrics body missing counter:\n%s", rr.Body.String())
	}
}

func TestReadyReportsDashboardState(t *testing.T) {
	store := target.NewStore([]target.GoalRow{
		{Dimension: core.DimBusinessType, Label: "车险整体", Target: decimal.NewFromInt(100)},
	}, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), target.WithIDFunc(func() string { return "v-1" }))

	srv, _ := newTestServer(t, fakeDashboard{records: 42, version: store.CurrentVersion()})

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", rr.Code)
	}
	var st Status
	if err := json.NewDecoder(rr.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.Ready || st.Records != 42 || st.VersionID != "v-1" || st.VersionName != "initial-20250301-080000" {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.Cache.Hits != 3 || st.Cache.Name != "kpi_series" {
		t.Fatalf("unexpected cache stats %+v", st.Cache)
	}
}

func TestReadyUnavailableWithoutDashboard(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503", rr.Code)
	}

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing status=%d", rr.Code)
	}
	if got := srv.Requests(); got.TotalRequests != 2 || got.FailedRequests != 2 {
		t.Fatalf("request counters = %+v", got)
	}
}
