package connector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

//Metrics records solver run times and outcomes per model instance
type Metrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

//NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lrc_experiment_duration_seconds",
			Help:    "Wall clock time of the solver executable per experiment.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"model"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lrc_experiments_total",
			Help: "Number of experiments run, by outcome.",
		}, []string{"model", "outcome"}),
	}
	if err := reg.Register(m.duration); err != nil {
		return nil, err
	}
	if err := reg.Register(m.runs); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(model string, runTime time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	} else {
		m.duration.WithLabelValues(model).Observe(runTime.Seconds())
	}
	m.runs.WithLabelValues(model, outcome).Inc()
}
