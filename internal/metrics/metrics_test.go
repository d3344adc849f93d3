package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/query", "200"))
	RecordHTTPRequest("GET", "/api/query", 200, 10*time.Millisecond)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/query", "200"))

	if after != before+1 {
		t.Errorf("counter went from %v to %v, want an increment of 1", before, after)
	}
}

func TestInFlightGauge_IncrementAndDecrement(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsInFlight)
	IncrementInFlight()
	if got := testutil.ToFloat64(httpRequestsInFlight); got != before+1 {
		t.Errorf("after IncrementInFlight, gauge = %v, want %v", got, before+1)
	}
	DecrementInFlight()
	if got := testutil.ToFloat64(httpRequestsInFlight); got != before {
		t.Errorf("after DecrementInFlight, gauge = %v, want %v", got, before)
	}
}

func TestUpdateDBStats(t *testing.T) {
	UpdateDBStats(5, 2)
	if got := testutil.ToFloat64(dbConnectionsOpen); got != 5 {
		t.Errorf("dbConnectionsOpen = %v, want 5", got)
	}
	if got := testutil.ToFloat64(dbConnectionsInUse); got != 2 {
		t.Errorf("dbConnectionsInUse = %v, want 2", got)
	}
}

func TestUpdateRealtimeStats(t *testing.T) {
	UpdateRealtimeStats(3, 7)
	if got := testutil.ToFloat64(realtimeConnections); got != 3 {
		t.Errorf("realtimeConnections = %v, want 3", got)
	}
	if got := testutil.ToFloat64(realtimeSubscriptions); got != 7 {
		t.Errorf("realtimeSubscriptions = %v, want 7", got)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected a non-empty metrics response body")
	}
}
