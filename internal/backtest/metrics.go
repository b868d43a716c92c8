package backtest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Backtest runs by model and outcome.",
		},
		[]string{"model", "status"},
	)
	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "Wall time of a backtest run including model fitting.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
		[]string{"model"},
	)
)

// RegisterMetrics adds the backtest collectors to reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{runsTotal, runDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func observeRun(model, status string, d time.Duration) {
	runsTotal.WithLabelValues(model, status).Inc()
	runDuration.WithLabelValues(model).Observe(d.Seconds())
}
