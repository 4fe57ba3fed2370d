package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PushDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_deliveries_total",
			Help: "Per-recipient push delivery outcomes.",
		},
		[]string{"result"},
	)

	AccountLifecycleOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_lifecycle_ops_total",
			Help: "Account lifecycle operations by kind and result.",
		},
		[]string{"op", "result"},
	)
)

func MustRegister() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		PushDeliveriesTotal,
		AccountLifecycleOpsTotal,
	)
}
