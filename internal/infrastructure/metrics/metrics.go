// Package metrics exposes Prometheus counters for the recovery flow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Step outcomes.
const (
	OutcomeAdvanced = "advanced"
	OutcomeStayed   = "stayed"
	OutcomeBusy     = "busy"
	OutcomeError    = "error"
)

// Recorder owns the collectors registered for one process.
type Recorder struct {
	gatherer     prometheus.Gatherer
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	redemptions  *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		gatherer: reg,
		steps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recovery_step_total",
				Help: "Recovery step submissions by step and outcome",
			},
			[]string{"step", "outcome"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recovery_step_duration_seconds",
				Help:    "Duration of recovery step submissions",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10},
			},
			[]string{"step"},
		),
		redemptions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_redeem_total",
				Help: "Verification link redemptions by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveStep records one submission of step with its outcome.
func (r *Recorder) ObserveStep(step, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.steps.WithLabelValues(step, outcome).Inc()
	r.stepDuration.WithLabelValues(step).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveRedeem(ok bool) {
	if r == nil {
		return
	}
	outcome := "redeemed"
	if !ok {
		outcome = "rejected"
	}
	r.redemptions.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
