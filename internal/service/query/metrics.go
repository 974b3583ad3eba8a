package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "genie_dashboard_statement_poll_attempts",
			Help:    "Status fetches made per polled statement",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 30, 60},
		},
	)

	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genie_dashboard_query_executions_total",
			Help: "Total number of saved query executions by outcome",
		},
		[]string{"outcome"},
	)

	ExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "genie_dashboard_query_execution_duration_seconds",
			Help:    "Duration of saved query executions in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
