// Package metrics exposes Prometheus instrumentation for the
// coordinator. All collectors hang off a private registry so tests can
// create coordinators without double-registration panics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values for ResultsTotal.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics bundles the coordinator's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	LeasesTotal    prometheus.Counter
	LeasedPwdTotal prometheus.Counter
	ResultsTotal   *prometheus.CounterVec
	ReclaimedTotal prometheus.Counter
}

// New creates a metrics bundle with its own registry, including the
// standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Metrics{
		registry: reg,
		LeasesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "luckydog_leases_issued_total",
			Help: "Total number of non-empty work leases issued",
		}),
		LeasedPwdTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "luckydog_passwords_leased_total",
			Help: "Total number of candidate passphrases handed out in leases",
		}),
		ResultsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "luckydog_results_total",
			Help: "Total number of batch results submitted by workers",
		}, []string{"outcome"}),
		ReclaimedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "luckydog_reclaimed_rows_total",
			Help: "Total number of stale CHECKING rows returned to UNCHECKED",
		}),
	}
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
