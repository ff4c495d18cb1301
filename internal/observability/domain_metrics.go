package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insightq_questions_total",
			Help: "Total number of questions asked across all sessions.",
		},
	)
	blockedQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insightq_blocked_queries_total",
			Help: "Total number of generated statements rejected by the safety guard.",
		},
	)
	refinementsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insightq_refinements_total",
			Help: "Total number of self-correction attempts after a failed execution.",
		},
	)
	questionOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightq_question_outcomes_total",
			Help: "Question outcomes by validation kind and attempt count.",
		},
		[]string{"outcome", "attempts"},
	)
	questionLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insightq_question_latency_seconds",
			Help:    "End-to-end question resolution latency in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
		},
	)
	uploadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insightq_uploads_total",
			Help: "Total number of dataset uploads accepted.",
		},
	)
	uploadRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insightq_upload_rows_total",
			Help: "Total number of data rows loaded from uploads.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		blockedQueriesTotal,
		refinementsTotal,
		questionOutcomesTotal,
		questionLatencySeconds,
		uploadsTotal,
		uploadRowsTotal,
	)
}

func IncrementQuestion() {
	questionsTotal.Inc()
}

func IncrementBlockedQuery() {
	blockedQueriesTotal.Inc()
}

func IncrementRefinement() {
	refinementsTotal.Inc()
}

func ObserveQuestion(outcome string, attempts int, elapsed time.Duration) {
	questionOutcomesTotal.WithLabelValues(outcome, attemptsLabel(attempts)).Inc()
	questionLatencySeconds.Observe(elapsed.Seconds())
}

func ObserveUpload(rows int) {
	uploadsTotal.Inc()
	if rows > 0 {
		uploadRowsTotal.Add(float64(rows))
	}
}

func attemptsLabel(attempts int) string {
	switch attempts {
	case 1:
		return "1"
	case 2:
		return "2"
	default:
		return "other"
	}
}
