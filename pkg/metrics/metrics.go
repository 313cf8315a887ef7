package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sink records optimizer activity in Prometheus metrics.
type Sink struct {
	runs            *prometheus.CounterVec
	cellsChanged    prometheus.Counter
	persistFailures prometheus.Counter
}

// NewSink registers optimizer metrics on the provided registerer. If reg is
// nil, the default registerer is used. If the collectors are already
// registered, the existing ones are reused.
func NewSink(reg prometheus.Registerer) (*Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_runs_total",
		Help: "Total number of optimizer runs",
	}, []string{"outcome"})
	cellsChanged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_cells_changed_total",
		Help: "Total number of cells changed by optimizer runs",
	})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_persist_failures_total",
		Help: "Total number of cell writes that failed after an optimizer run",
	})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(cellsChanged); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cellsChanged = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(persistFailures); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			persistFailures = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}

	return &Sink{runs: runs, cellsChanged: cellsChanged, persistFailures: persistFailures}, nil
}

// RecordRun increments the run counter and the changed/failed cell totals.
// A run with any failed writes counts as "partial", otherwise "clean".
func (s *Sink) RecordRun(changed, failed int) {
	outcome := "clean"
	if failed > 0 {
		outcome = "partial"
	}
	s.runs.WithLabelValues(outcome).Inc()
	s.cellsChanged.Add(float64(changed))
	s.persistFailures.Add(float64(failed))
}

// Handler exposes the default registry over HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}
