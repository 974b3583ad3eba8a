package databricks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genie_dashboard_databricks_requests_total",
			Help: "Total number of Databricks API calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genie_dashboard_databricks_request_duration_seconds",
			Help:    "Duration of Databricks API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)
