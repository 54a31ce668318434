package notifier

import (
	"strings"
	"testing"

	"github.com/hive-corporation/sentryline/pkg/models"
)

func TestBuildBlocksIncludesAlertAndActions(t *testing.T) {
	n := NewSlackNotifier("token", "#security-alerts", "@oncall")
	alert := models.Alert{AlertID: "a1", AlertType: models.AlertTypeRansomware}
	result := models.TriageResult{
		RiskLevel:          models.ThreatCritical,
		RiskScore:          92,
		Confidence:         0.4,
		AnalysisText:       "mass encryption detected",
		ModelUsed:          "claude-3-5-haiku-latest",
		IOCsExtracted:      []models.IOC{{Type: models.IOCIPAddress, Value: "10.0.0.5"}},
		RecommendedActions: []models.RecommendedAction{{Action: "isolate_host", Priority: 1}},
	}

	blocks := n.buildBlocks(alert, result)
	if len(blocks) == 0 {
		t.Fatal("buildBlocks() returned no blocks")
	}

	var joined strings.Builder
	for _, b := range blocks {
		if b.Text != nil {
			joined.WriteString(b.Text.Text)
		}
		for _, e := range b.Elements {
			joined.WriteString(e.Text)
		}
	}
	out := joined.String()

	for _, want := range []string{"a1", "isolate_host", "mass encryption detected"} {
		if !strings.Contains(out, want) {
			t.Errorf("blocks missing %q, got: %s", want, out)
		}
	}
	if !strings.Contains(out, "🔴") {
		t.Errorf("low-confidence result should use the red confidence emoji, got: %s", out)
	}
}

func TestBuildBlocksMentionsTeamWhenConfigured(t *testing.T) {
	n := NewSlackNotifier("token", "#sec", "@oncall-team")
	blocks := n.buildBlocks(models.Alert{AlertID: "a2"}, models.TriageResult{RiskLevel: models.ThreatHigh, Confidence: 0.9})

	found := false
	for _, b := range blocks {
		if b.Text != nil && strings.Contains(b.Text.Text, "@oncall-team") {
			found = true
		}
	}
	if !found {
		t.Error("expected mention-team block when mentionTeam is configured")
	}
}
