package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cardsnap/cardsnap/constants"
	"github.com/cardsnap/cardsnap/internal/entity"
)

// Metrics collects pipeline telemetry. All methods are safe on a nil
// receiver inside the orchestrator, which checks before observing.
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	recConfidence prometheus.Histogram
	recDuration   prometheus.Histogram
}

// NewMetrics registers the pipeline collectors on reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardsnap",
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline runs by contact source.",
		}, []string{"source"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardsnap",
			Name:      "pipeline_stage_failures_total",
			Help:      "Stage failures, including absorbed fallback failures.",
		}, []string{"stage"}),
		recConfidence: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cardsnap",
			Name:      "recognition_confidence",
			Help:      "Aggregate recognition confidence per run.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
		}),
		recDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cardsnap",
			Name:      "recognition_duration_seconds",
			Help:      "Wall time of the recognition stage.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

func (m *Metrics) CountRun(source constants.ContactSource) {
	m.runsTotal.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) CountStageFailure(stage string) {
	m.stageFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveRecognition(res entity.RecognitionResult) {
	m.recConfidence.Observe(float64(res.Confidence))
	m.recDuration.Observe(float64(res.ProcessingTimeMs) / 1000.0)
}
