package triageagent

import (
	"testing"

	"github.com/hive-corporation/sentryline/pkg/models"
)

func TestIsKnownGoodIndicator(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected bool
	}{
		{"Microsoft domain", "update.microsoft.com", true},
		{"AWS domain", "s3.amazonaws.com", true},
		{"Unknown domain", "malicious-site.xyz", false},
		{"IP address", "192.0.2.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isKnownGoodIndicator(tt.value); got != tt.expected {
				t.Errorf("isKnownGoodIndicator(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestPreLLMSkipAllKnownGood(t *testing.T) {
	iocs := []models.IOC{{Value: "update.microsoft.com", Type: models.IOCDomain}}

	analysis, skip := PreLLMSkip(iocs, nil)
	if !skip {
		t.Fatal("expected PreLLMSkip to short-circuit on all-known-good IOCs")
	}
	if analysis.RiskLevel != models.ThreatClean {
		t.Errorf("RiskLevel = %v, want clean", analysis.RiskLevel)
	}
}

func TestPreLLMSkipMixedIOCsProceedsToLLM(t *testing.T) {
	iocs := []models.IOC{
		{Value: "update.microsoft.com", Type: models.IOCDomain},
		{Value: "evil.example", Type: models.IOCDomain},
	}

	_, skip := PreLLMSkip(iocs, nil)
	if skip {
		t.Fatal("expected PreLLMSkip to proceed to LLM when not all IOCs are known-good")
	}
}

func TestPostLLMAdjustOverridesCleanWithThreatIntelHit(t *testing.T) {
	analysis := &LLMAnalysis{RiskLevel: models.ThreatClean, Confidence: 0.9}
	summary := &models.ThreatSummary{SourcesHit: []string{"virustotal"}}

	got := PostLLMAdjust(analysis, summary)

	if got.RiskLevel != models.ThreatMedium {
		t.Errorf("RiskLevel = %v, want medium after override", got.RiskLevel)
	}
}

func TestPostLLMAdjustDowngradesCriticalWithoutIntel(t *testing.T) {
	analysis := &LLMAnalysis{RiskLevel: models.ThreatCritical, Confidence: 0.9}

	got := PostLLMAdjust(analysis, nil)

	if got.RiskLevel != models.ThreatHigh {
		t.Errorf("RiskLevel = %v, want high after downgrade", got.RiskLevel)
	}
}
