package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.OverrideWrite("insert", nil)
	m.OverrideWrite("insert", nil)
	m.OverrideWrite("update", errors.New("boom"))
	m.DebouncedWrite(nil)
	m.AddUnsynced(2)
	m.AddUnsynced(-1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.overrideWrites.WithLabelValues("insert", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.overrideWrites.WithLabelValues("update", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.debouncedWrites.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unsyncedRows))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.OverrideWrite("insert", nil)
	m.HTTPRequest("GET", "/", 200, time.Millisecond)
	m.ReminderSent()
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.HTTPRequest("GET", "/api/items", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `debikan_http_requests_total{code="200",method="GET",route="/api/items"} 1`))
}
