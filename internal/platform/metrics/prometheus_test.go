package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsManager(t *testing.T) {
	m := NewMetricsManager("flog-it")

	m.ListingsCreatedTotal.Inc()
	m.HTTPRequestsTotal.WithLabelValues("GET", "/listings/{id}", "200").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListingsCreatedTotal))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "flog_it_listings_created_total 1")
	assert.Contains(t, string(body), `flog_it_http_requests_total{method="GET",route="/listings/{id}",status="200"} 1`)
}

func TestNewMetricsServer_Disabled(t *testing.T) {
	assert.Nil(t, NewMetricsServer("", NewMetricsManager("x")))
	assert.Equal(t, ":9093", NewMetricsServer("9093", NewMetricsManager("y")).Addr)
}
