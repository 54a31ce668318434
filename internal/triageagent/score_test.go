package triageagent

import (
	"testing"

	"github.com/hive-corporation/sentryline/pkg/models"
)

func TestDeterministicScoreClamped(t *testing.T) {
	tests := []struct {
		name string
		in   ScoreInput
		min  float64
		max  float64
	}{
		{
			name: "critical everything",
			in: ScoreInput{
				Severity:         models.SeverityCritical,
				AlertType:        models.AlertTypeRansomware,
				ThreatScore:      100,
				AssetCriticality: models.CriticalityCritical,
				Exploitability:   ExploitabilitySignals{KnownCVE: true, HasPublicExploit: true, ExploitAgeDays: 5},
			},
			min: 99, max: 100,
		},
		{
			name: "minimal everything",
			in: ScoreInput{
				Severity:         models.SeverityInfo,
				AlertType:        models.AlertTypePolicyViolation,
				ThreatScore:      0,
				AssetCriticality: models.CriticalityUnknown,
			},
			min: 0, max: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeterministicScore(tt.in)
			if got < tt.min || got > tt.max {
				t.Errorf("DeterministicScore(%+v) = %v, want in [%v, %v]", tt.in, got, tt.min, tt.max)
			}
			if got < 0 || got > 100 {
				t.Errorf("DeterministicScore(%+v) = %v, out of [0,100]", tt.in, got)
			}
		})
	}
}

func TestDeterministicScoreHistoricalMultiplier(t *testing.T) {
	base := ScoreInput{
		Severity:         models.SeverityHigh,
		AlertType:        models.AlertTypeOther,
		ThreatScore:      50,
		AssetCriticality: models.CriticalityMedium,
	}
	withoutHistory := DeterministicScore(base)

	withHistory := base
	withHistory.SimilarHighRiskCount = 3
	got := DeterministicScore(withHistory)

	if got <= withoutHistory {
		t.Errorf("expected historical multiplier to raise score: without=%v with=%v", withoutHistory, got)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   ConfidenceInput
		want float64
	}{
		{"none populated", ConfidenceInput{}, 0},
		{"all populated", ConfidenceInput{true, true, true, true, true}, 1},
		{"severity only", ConfidenceInput{SeverityPresent: true}, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Confidence(tt.in); got != tt.want {
				t.Errorf("Confidence(%+v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRequiresHumanReview(t *testing.T) {
	tests := []struct {
		name       string
		riskScore  float64
		confidence float64
		alertType  models.AlertType
		want       bool
	}{
		{"high score", 75, 0.9, models.AlertTypeMalware, true},
		{"low confidence", 20, 0.3, models.AlertTypeMalware, true},
		{"ransomware always", 10, 0.9, models.AlertTypeRansomware, true},
		{"data exfil always", 10, 0.9, models.AlertTypeDataExfiltration, true},
		{"none triggered", 20, 0.9, models.AlertTypeMalware, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequiresHumanReview(tt.riskScore, tt.confidence, tt.alertType); got != tt.want {
				t.Errorf("RequiresHumanReview(%v, %v, %v) = %v, want %v", tt.riskScore, tt.confidence, tt.alertType, got, tt.want)
			}
		})
	}
}

func TestComplexity(t *testing.T) {
	tests := []struct {
		name        string
		threatScore float64
		criticality models.AssetCriticality
		severity    models.Severity
		want        string
	}{
		{"high threat score", 80, models.CriticalityMedium, models.SeverityMedium, "high"},
		{"critical asset", 10, models.CriticalityCritical, models.SeverityMedium, "high"},
		{"critical severity", 10, models.CriticalityLow, models.SeverityCritical, "high"},
		{"low severity", 10, models.CriticalityLow, models.SeverityLow, "low"},
		{"default medium", 10, models.CriticalityLow, models.SeverityMedium, "medium"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Complexity(tt.threatScore, tt.criticality, tt.severity); got != tt.want {
				t.Errorf("Complexity(...) = %v, want %v", got, tt.want)
			}
		})
	}
}
