package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMonitorRecordsPerSymbol(t *testing.T) {
	m := New(DefaultConfig())

	m.RecordQuote("AAA", 99.9, 100.1)
	m.RecordQuote("AAA", 99.8, 100.2)
	m.RecordQuote("BBB", 10, 10.5)
	m.RecordQuoteSkip("AAA", "insufficient_history")
	m.RecordOrderPlaced("AAA", "BUY")
	m.RecordOrderFilled("AAA", "BUY")
	m.UpdatePosition("BBB", -3)

	if got := testutil.ToFloat64(m.quotesGenerated.WithLabelValues("AAA")); got != 2 {
		t.Fatalf("expected 2 quotes for AAA, got %v", got)
	}
	if got := testutil.ToFloat64(m.askPrice.WithLabelValues("AAA")); got != 100.2 {
		t.Fatalf("unexpected ask gauge %v", got)
	}
	if got := testutil.ToFloat64(m.quoteSkips.WithLabelValues("AAA", "insufficient_history")); got != 1 {
		t.Fatalf("unexpected skip count %v", got)
	}
	if got := testutil.ToFloat64(m.position.WithLabelValues("BBB")); got != -3 {
		t.Fatalf("unexpected position gauge %v", got)
	}
}

func TestMonitorHandlerExposesMetrics(t *testing.T) {
	m := New(Config{Namespace: "t", Subsystem: "x"})
	m.RecordParamChange("rolling_window", "rejected")
	m.RecordFault("AAA", "on_trade")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"t_x_param_changes_total", "t_x_recovered_faults_total"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metric %s missing from output", want)
		}
	}
}
