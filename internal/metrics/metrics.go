package metrics

import "github.com/prometheus/client_golang/prometheus"

// Chatbot Prometheus metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lyricbot",
			Name:      "queries_total",
			Help:      "Handled queries by outcome",
		},
		[]string{"outcome"}, // answered, no_answer, failed
	)

	GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lyricbot",
			Name:      "generation_duration_seconds",
			Help:      "Retrieve-and-generate latency per query",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	PipelineBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lyricbot",
			Name:      "pipeline_builds_total",
			Help:      "Pipeline assembly attempts",
		},
		[]string{"result"}, // success, error
	)
)

func init() {
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(GenerationDuration)
	prometheus.MustRegister(PipelineBuildsTotal)
}
