package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(WithRegistry(registry), WithNamespace("test"))

	m.ObserveGuard("redirect", "expired")
	m.ObserveGuard("redirect", "expired")
	m.ObserveGuard("proceed", "authenticated")
	m.ObserveResponse(http.MethodPost, http.StatusOK, 10*time.Millisecond)
	m.ObserveResponse(http.MethodPost, http.StatusUnauthorized, 5*time.Millisecond)
	m.ObserveRejected()
	m.ObserveHTTP("", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.guardDecisions.WithLabelValues("redirect", "expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.guardDecisions.WithLabelValues("proceed", "authenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("POST", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("unmatched", "404")))
}
