package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	RunsTotal         *prometheus.CounterVec
	RecordsProcessed  *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	SchedulerAttempts prometheus.Counter
	SchedulerFailures prometheus.Counter
	ErrorsCount       *prometheus.CounterVec
}

// NewMetrics creates pipeline metrics registered on reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "The total number of pipeline runs by final status",
		}, []string{"status"}),
		RecordsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_processed_total",
			Help:      "The total number of records seen per pipeline stage",
		}, []string{"stage"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Time taken by one pipeline run",
			Buckets:   prometheus.DefBuckets,
		}),
		SchedulerAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_attempts_total",
			Help:      "The total number of pipeline attempts made by scheduled triggers",
		}),
		SchedulerFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_failures_total",
			Help:      "The total number of scheduled triggers that exhausted their retries",
		}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
