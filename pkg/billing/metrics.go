package billing

import "github.com/prometheus/client_golang/prometheus"

const prometheusMetricNamespace = "cost_explorer"

var (
	recordsMaterializedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "records_materialized_total",
			Help:      "Number of billing records materialized from query results.",
		},
	)

	cellsDegradedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "cells_degraded_total",
			Help:      "Number of result cells kept as raw text because they could not be decoded.",
		},
		[]string{"column"},
	)
)

func init() {
	prometheus.MustRegister(recordsMaterializedCounter)
	prometheus.MustRegister(cellsDegradedCounter)
}
