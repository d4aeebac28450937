package evaluator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	evaluationTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Help:      "Asset evaluation time",
			Name:      "evaluation_time",
			Namespace: "assetkit",
		},
	)
)

func init() {
	prometheus.MustRegister(
		evaluationTime,
	)
}
