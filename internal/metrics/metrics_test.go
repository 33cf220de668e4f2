package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()
	m.SubmissionCreated("message")
	m.SubmissionCreated("message")
	m.SubmissionPatched("booking")
	m.SubmissionRejected("validation")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.created.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.patched.WithLabelValues("booking")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("validation")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.SubmissionCreated("message")
	m.ObserveRequest("GET", "/", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesSeries(t *testing.T) {
	m := New()
	m.SubmissionCreated("booking")
	m.ObserveRequest("POST", "/api/v1/submissions", 201, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `submissions_created_total{type="booking"} 1`)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds_bucket")
}
