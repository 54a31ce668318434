// Package metrics generalizes the teacher's internal/adapter/llm
// metrics.go sync.Once-guarded Prometheus registration to every stage,
// instead of hand-rolling a separate metrics file per service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	stageMessagesTotal  *prometheus.CounterVec
	stageDuration       *prometheus.HistogramVec
	stageErrorsTotal    *prometheus.CounterVec
	stageDLQTotal       *prometheus.CounterVec

	triageConfidence *prometheus.HistogramVec
	triageRiskLevel  *prometheus.CounterVec
	guardrailsTotal  *prometheus.CounterVec

	tiCacheHitRatio *prometheus.GaugeVec
	circuitState    *prometheus.GaugeVec
)

// Init registers all pipeline metrics. Safe to call from every cmd/
// main; registration happens exactly once per process.
func Init() {
	once.Do(func() {
		stageMessagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentryline_stage_messages_total",
				Help: "Total messages processed by a pipeline stage, by stage and outcome",
			},
			[]string{"stage", "outcome"},
		)

		stageDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentryline_stage_duration_seconds",
				Help:    "Duration of a pipeline stage's per-message processing",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"stage"},
		)

		stageErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentryline_stage_errors_total",
				Help: "Total stage errors by stage and error type",
			},
			[]string{"stage", "error_type"},
		)

		stageDLQTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentryline_stage_dlq_total",
				Help: "Total messages routed to a dead-letter queue, by stage",
			},
			[]string{"stage"},
		)

		triageConfidence = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentryline_triage_confidence",
				Help:    "Distribution of triage confidence scores (0-100)",
				Buckets: []float64{50, 60, 70, 75, 80, 85, 90, 95, 100},
			},
			[]string{"model"},
		)

		triageRiskLevel = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentryline_triage_risk_level_total",
				Help: "Distribution of triage risk levels",
			},
			[]string{"risk_level"},
		)

		guardrailsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentryline_triage_guardrails_total",
				Help: "Total guardrail activations by phase and action",
			},
			[]string{"phase", "action"},
		)

		tiCacheHitRatio = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentryline_ti_cache_hit_ratio",
				Help: "Threat-intel cache hit ratio by source",
			},
			[]string{"source"},
		)

		circuitState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentryline_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) by dependency",
			},
			[]string{"dependency"},
		)
	})
}

// RecordMessage records one processed message's outcome for a stage.
// outcome: "ok", "error", "duplicate", "dlq".
func RecordMessage(stage, outcome string) {
	if stageMessagesTotal != nil {
		stageMessagesTotal.WithLabelValues(stage, outcome).Inc()
	}
}

func RecordError(stage, errorType string) {
	if stageErrorsTotal != nil {
		stageErrorsTotal.WithLabelValues(stage, errorType).Inc()
	}
}

func RecordDLQ(stage string) {
	if stageDLQTotal != nil {
		stageDLQTotal.WithLabelValues(stage).Inc()
	}
}

func RecordTriageConfidence(model string, confidence float64) {
	if triageConfidence != nil {
		triageConfidence.WithLabelValues(model).Observe(confidence)
	}
}

func RecordTriageRiskLevel(riskLevel string) {
	if triageRiskLevel != nil {
		triageRiskLevel.WithLabelValues(riskLevel).Inc()
	}
}

// RecordGuardrail records a guardrail activation. phase: "pre", "post".
func RecordGuardrail(phase, action string) {
	if guardrailsTotal != nil {
		guardrailsTotal.WithLabelValues(phase, action).Inc()
	}
}

func SetTICacheHitRatio(source string, ratio float64) {
	if tiCacheHitRatio != nil {
		tiCacheHitRatio.WithLabelValues(source).Set(ratio)
	}
}

// SetCircuitState records 0/1/2 for closed/half-open/open, matching
// gobreaker.State's own ordering.
func SetCircuitState(dependency string, state int) {
	if circuitState != nil {
		circuitState.WithLabelValues(dependency).Set(float64(state))
	}
}

// StageTimer times one message's processing for a given stage.
type StageTimer struct {
	stage string
	start time.Time
}

func StartStageTimer(stage string) *StageTimer {
	return &StageTimer{stage: stage, start: time.Now()}
}

func (t *StageTimer) ObserveDuration() {
	if t != nil && stageDuration != nil {
		stageDuration.WithLabelValues(t.stage).Observe(time.Since(t.start).Seconds())
	}
}
