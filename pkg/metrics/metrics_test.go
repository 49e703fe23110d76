package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()

	require.NotNil(t, m.LeasesTotal)
	require.NotNil(t, m.LeasedPwdTotal)
	require.NotNil(t, m.ResultsTotal)
	require.NotNil(t, m.ReclaimedTotal)

	// Two bundles must not collide: each carries its own registry.
	assert.NotPanics(t, func() { New() })
}

func TestCounters(t *testing.T) {
	m := New()

	m.LeasesTotal.Inc()
	m.LeasedPwdTotal.Add(800)
	m.ResultsTotal.WithLabelValues(OutcomeFailure).Inc()
	m.ResultsTotal.WithLabelValues(OutcomeFailure).Inc()
	m.ResultsTotal.WithLabelValues(OutcomeSuccess).Inc()
	m.ReclaimedTotal.Add(42)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.LeasesTotal))
	assert.Equal(t, float64(800), testutil.ToFloat64(m.LeasedPwdTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ResultsTotal.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResultsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, float64(42), testutil.ToFloat64(m.ReclaimedTotal))
}

func TestHandler(t *testing.T) {
	m := New()
	m.LeasesTotal.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "luckydog_leases_issued_total 1")
}
