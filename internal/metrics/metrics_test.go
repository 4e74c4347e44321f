package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"krishak/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStartedRecordsRequest(t *testing.T) {
	done := metrics.RequestStarted()
	done("GET", "/api/products", http.StatusOK)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `krishak_http_requests_total{method="GET",path="/api/products",status="200"}`)
}

func TestOrdersPlacedCounter(t *testing.T) {
	before := testutil.ToFloat64(metrics.OrdersPlaced.WithLabelValues("placed"))
	metrics.OrdersPlaced.WithLabelValues("placed").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.OrdersPlaced.WithLabelValues("placed")))
}
