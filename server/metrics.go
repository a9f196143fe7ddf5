package server

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookshelf",
			Name:      "graphql_operations_total",
			Help:      "GraphQL operations executed, by endpoint.",
		}, []string{"endpoint"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookshelf",
			Name:      "graphql_errors_total",
			Help:      "Errors returned in GraphQL responses, by endpoint.",
		}, []string{"endpoint"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookshelf",
			Name:      "graphql_request_duration_seconds",
			Help:      "Time spent serving GraphQL HTTP requests, by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	reg.MustRegister(m.operations, m.errors, m.duration)

	return m
}
