package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCalculation(t *testing.T) {
	m := New()

	m.ObserveCalculation(OutcomeOK, 12, 5*time.Millisecond)
	m.ObserveCalculation(OutcomeOK, 3, time.Millisecond)
	m.ObserveCalculation(OutcomeDataError, 99, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Calculations.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues(OutcomeDataError)))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.SegmentsEmitted), "failed runs emit nothing")
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveRequest("/api/rent-analysis", "GET", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `rent_http_requests_total{method="GET",route="/api/rent-analysis",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
