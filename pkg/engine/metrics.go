package engine

import "github.com/prometheus/client_golang/prometheus"

const prometheusMetricNamespace = "cost_explorer"

var (
	queriesSubmittedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "queries_submitted_total",
			Help:      "Number of queries submitted to the query engine.",
		},
	)

	queriesFailedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "queries_failed_total",
			Help:      "Number of queries that failed, by error class.",
		},
		[]string{"class"},
	)

	queryWaitDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "query_wait_duration_seconds",
			Help:      "Time spent polling a query until it reached a terminal state.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(queriesSubmittedCounter)
	prometheus.MustRegister(queriesFailedCounter)
	prometheus.MustRegister(queryWaitDurationHistogram)
}

func recordFailure(err error) {
	if err == nil {
		return
	}
	queriesFailedCounter.WithLabelValues(Class(err)).Inc()
}
