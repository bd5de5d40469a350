// Package metrics records pipeline run outcomes for Prometheus.
// Runs are short-lived, so values are pushed to a Pushgateway instead of scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const Job = "poolsnapshot"

// Metrics holds the collectors of one process. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal    *prometheus.CounterVec
	PoolsWritten *prometheus.GaugeVec
	RunDuration  *prometheus.HistogramVec
	VoteBuckets  *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poolsnapshot_runs_total",
				Help: "Pipeline runs by outcome",
			},
			[]string{"pipeline", "status"},
		),
		PoolsWritten: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "poolsnapshot_pools_written",
				Help: "Pools written by the last run of each pipeline",
			},
			[]string{"pipeline"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "poolsnapshot_run_duration_seconds",
				Help:    "Wall time of a pipeline run",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"pipeline"},
		),
		VoteBuckets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "poolsnapshot_vote_buckets",
				Help: "Lockup buckets of the last vote snapshot by state",
			},
			[]string{"state"},
		),
	}
	m.registry.MustRegister(m.RunsTotal, m.PoolsWritten, m.RunDuration, m.VoteBuckets)
	return m
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(pipeline string, pools int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	} else {
		m.PoolsWritten.WithLabelValues(pipeline).Set(float64(pools))
	}
	m.RunsTotal.WithLabelValues(pipeline, status).Inc()
	m.RunDuration.WithLabelValues(pipeline).Observe(elapsed.Seconds())
}

// ObserveVoteBuckets records how many lockups held a position and how many were empty or failed.
func (m *Metrics) ObserveVoteBuckets(captured, missing int) {
	if m == nil {
		return
	}
	m.VoteBuckets.WithLabelValues("captured").Set(float64(captured))
	m.VoteBuckets.WithLabelValues("missing").Set(float64(missing))
}

// Push sends the registry to the Pushgateway at url. An empty url is a no-op.
func (m *Metrics) Push(url, instance string) error {
	if m == nil || url == "" {
		return nil
	}
	pusher := push.New(url, Job).Gatherer(m.registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	return pusher.Push()
}
