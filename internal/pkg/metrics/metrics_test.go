package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordPayment("completed", "USD", 12.5)
	m.RecordPayment("failed", "USD", 3)
	m.RecordTransition("", "active")
	m.RecordTransition("active", "expired")
	m.RecordJob("daily", time.Second, nil)
	m.RecordJob("daily", time.Second, errors.New("db down"))
	m.RecordJobItems("daily", "expiring", 2)
	m.RecordJobItems("daily", "expired", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentsTotal.WithLabelValues("completed")))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.PaymentAmountTotal.WithLabelValues("USD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitionsTotal.WithLabelValues("new", "active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("daily", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.JobItemsTouched.WithLabelValues("daily", "expiring")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/x", 200, time.Millisecond)
		m.RecordPayment("completed", "USD", 1)
		m.RecordTransition("active", "cancelled")
		m.RecordUsageLog("plan_change")
		m.RecordJob("weekly", time.Second, nil)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveHTTP("GET", "/api/v1/plans", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `billing_http_requests_total{method="GET",path="/api/v1/plans",status="200"} 1`)
}
