package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersAndHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.IncInquiry("inquiry", "sent")
	m.IncInquiry("inquiry", "sent")
	m.IncAutoReplyFailure()

	if got := testutil.ToFloat64(m.InquiryDispatch.WithLabelValues("inquiry", "sent")); got != 2 {
		t.Fatalf("inquiry sent=%v", got)
	}
	if got := testutil.ToFloat64(m.AutoReplyFailures); got != 1 {
		t.Fatalf("autoreply failures=%v", got)
	}

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "bandsite_inquiry_dispatch_total") {
		t.Fatalf("exposition missing counter:\n%s", body)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.IncInquiry("config", "failed")
	m.IncSignIn("error")
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("code=%d", rr.Code)
	}
}
