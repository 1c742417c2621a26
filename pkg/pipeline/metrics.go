package pipeline

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tarunsinghofficial/visionbackend/pkg/detection"
	"github.com/tarunsinghofficial/visionbackend/pkg/genai"
)

// Metrics holds Prometheus metrics for pipeline runs.
//
// All metrics are prefixed with "vision_".
type Metrics struct {
	RunsTotal           *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	DetectedObjects     prometheus.Histogram
	RecommendationFails prometheus.Counter
	GenerativeAttempts  *prometheus.CounterVec
	AnalysisSource      *prometheus.CounterVec
	StorageFailures     *prometheus.CounterVec
}

// NewMetrics creates and registers metrics on reg. A nil reg returns nil,
// which disables recording.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)

	return &Metrics{
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vision_pipeline_runs_total",
				Help: "Total number of pipeline runs by status",
			},
			[]string{"status"}, // "ok", "invalid_image", "too_large", "detection_failed"
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vision_pipeline_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		DetectedObjects: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vision_detected_objects",
				Help:    "Number of room-relevant objects kept per image",
				Buckets: prometheus.LinearBuckets(0, 2, 10),
			},
		),
		RecommendationFails: f.NewCounter(
			prometheus.CounterOpts{
				Name: "vision_recommendation_failures_total",
				Help: "Total number of runs whose recommendations degraded to empty",
			},
		),
		GenerativeAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vision_generative_attempts_total",
				Help: "Total number of generative model calls by model and result",
			},
			[]string{"model", "result"},
		),
		AnalysisSource: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vision_analysis_source_total",
				Help: "Total number of analyses by source and fallback reason",
			},
			[]string{"source", "reason"},
		),
		StorageFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vision_storage_failures_total",
				Help: "Total number of failed best-effort storage writes",
			},
			[]string{"kind"}, // "image" or "history"
		),
	}
}

func (m *Metrics) observeStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

func (m *Metrics) recordRun(err error) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(runStatus(err)).Inc()
}

func (m *Metrics) recordDetections(n int) {
	if m == nil {
		return
	}
	m.DetectedObjects.Observe(float64(n))
}

func (m *Metrics) recordRecommendationFailure() {
	if m == nil {
		return
	}
	m.RecommendationFails.Inc()
}

func (m *Metrics) recordOutcome(o genai.Outcome) {
	if m == nil {
		return
	}
	for _, a := range o.Attempts {
		m.GenerativeAttempts.WithLabelValues(a.Model, a.Result).Inc()
	}
	m.AnalysisSource.WithLabelValues(string(o.Source), o.Reason).Inc()
}

func (m *Metrics) recordStorageFailure(kind string) {
	if m == nil {
		return
	}
	m.StorageFailures.WithLabelValues(kind).Inc()
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, detection.ErrPayloadTooLarge):
		return "too_large"
	case errors.Is(err, detection.ErrInvalidImage):
		return "invalid_image"
	default:
		return "detection_failed"
	}
}
