package triageagent

import (
	"testing"

	"github.com/hive-corporation/sentryline/pkg/models"
)

func TestParseAnalysisStrictJSON(t *testing.T) {
	response := `{"risk_level": "high", "confidence": 0.85, "reasoning": "multiple IOCs confirmed", "recommended_actions": ["isolate host"], "iocs": ["1.2.3.4"], "references": ["CVE-2024-1234"]}`

	got, err := parseAnalysis(response)
	if err != nil {
		t.Fatalf("parseAnalysis() error = %v", err)
	}
	if got.RiskLevel != models.ThreatHigh {
		t.Errorf("RiskLevel = %v, want high", got.RiskLevel)
	}
	if got.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85", got.Confidence)
	}
	if len(got.RecommendedActions) != 1 || got.RecommendedActions[0].Action != "isolate host" {
		t.Errorf("RecommendedActions = %+v", got.RecommendedActions)
	}
}

func TestParseAnalysisMarkdownFence(t *testing.T) {
	response := "Here is my assessment:\n```json\n{\"risk_level\": \"medium\", \"confidence\": 0.6, \"reasoning\": \"uncertain\"}\n```\nLet me know if you need more."

	got, err := parseAnalysis(response)
	if err != nil {
		t.Fatalf("parseAnalysis() error = %v", err)
	}
	if got.RiskLevel != models.ThreatMedium {
		t.Errorf("RiskLevel = %v, want medium", got.RiskLevel)
	}
}

func TestParseAnalysisRegexFallback(t *testing.T) {
	response := `Sure! {"risk_level": "low", "confidence": 0.4, "reasoning": "benign"} Hope that helps.`

	got, err := parseAnalysis(response)
	if err != nil {
		t.Fatalf("parseAnalysis() error = %v", err)
	}
	if got.RiskLevel != models.ThreatLow {
		t.Errorf("RiskLevel = %v, want low", got.RiskLevel)
	}
}

func TestParseAnalysisTotalFailure(t *testing.T) {
	_, err := parseAnalysis("Sorry, I can't help with that.")
	if err == nil {
		t.Fatal("parseAnalysis() expected error for unparseable response")
	}
}

func TestParseAnalysisInvalidRiskLevelDefaultsMedium(t *testing.T) {
	response := `{"risk_level": "extreme", "confidence": 0.5, "reasoning": "x"}`

	got, err := parseAnalysis(response)
	if err != nil {
		t.Fatalf("parseAnalysis() error = %v", err)
	}
	if got.RiskLevel != models.ThreatMedium {
		t.Errorf("RiskLevel = %v, want medium default", got.RiskLevel)
	}
}
