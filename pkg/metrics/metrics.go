package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	narrationPlanner = "narration_planner"

	// Job metrics
	jobStatusCount     = "job_status_count"
	jobPollsTotal      = "job_polls_total"
	generationDuration = "generation_duration_seconds"

	// Assignment metrics
	assignmentTransitionsTotal = "assignment_transitions_total"

	// Labels
	statusLabel     = "status"
	outcomeLabel    = "outcome"
	transitionLabel = "to"
)

var jobStatusCountMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: narrationPlanner,
		Name:      jobStatusCount,
		Help:      "number of tracked jobs in each lifecycle status",
	},
	[]string{statusLabel},
)

var jobPollsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: narrationPlanner,
		Name:      jobPollsTotal,
		Help:      "number of per-job status polls partitioned by outcome",
	},
	[]string{outcomeLabel},
)

var generationDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Subsystem: narrationPlanner,
		Name:      generationDuration,
		Help:      "time spent generating one script",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60},
	},
)

var assignmentTransitionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: narrationPlanner,
		Name:      assignmentTransitionsTotal,
		Help:      "number of assignment workflow transitions partitioned by target status",
	},
	[]string{transitionLabel},
)

func UpdateJobStatusCountMetric(status string, count int) {
	jobStatusCountMetric.With(prometheus.Labels{statusLabel: status}).Set(float64(count))
}

func IncreaseJobPollsTotalMetric(outcome string) {
	jobPollsTotalMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func ObserveGenerationDurationMetric(seconds float64) {
	generationDurationMetric.Observe(seconds)
}

func IncreaseAssignmentTransitionsTotalMetric(to string) {
	assignmentTransitionsTotalMetric.With(prometheus.Labels{transitionLabel: to}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobStatusCountMetric)
	prometheus.MustRegister(jobPollsTotalMetric)
	prometheus.MustRegister(generationDurationMetric)
	prometheus.MustRegister(assignmentTransitionsTotalMetric)
}
