package tiaggregator

import (
	"testing"

	"github.com/hive-corporation/sentryline/pkg/models"
)

func TestAggregateEmpty(t *testing.T) {
	summary := Aggregate(nil)
	if summary.Level != models.ThreatClean {
		t.Errorf("Aggregate(nil).Level = %v, want clean", summary.Level)
	}
	if summary.Confidence != 1 {
		t.Errorf("Aggregate(nil).Confidence = %v, want 1", summary.Confidence)
	}
}

func TestAggregateTakesWorstIndicator(t *testing.T) {
	records := []models.ThreatIntelRecord{
		{IOC: "1.2.3.4", ThreatScore: 10, SourcesQueried: []string{"virustotal"}, RawVendorData: map[string]any{"virustotal": 1}},
		{IOC: "evil.example", ThreatScore: 80, SourcesQueried: []string{"virustotal"}, SourcesHit: []string{"virustotal"}, RawVendorData: map[string]any{"virustotal": 1}},
	}

	summary := Aggregate(records)

	if summary.Score != 80 {
		t.Errorf("Score = %v, want 80", summary.Score)
	}
	if summary.Level != models.ThreatCritical {
		t.Errorf("Level = %v, want critical", summary.Level)
	}
	if len(summary.SourcesHit) != 1 || summary.SourcesHit[0] != "virustotal" {
		t.Errorf("SourcesHit = %v, want [virustotal]", summary.SourcesHit)
	}
}

func TestAggregateConfidenceDropsWithMissingSources(t *testing.T) {
	records := []models.ThreatIntelRecord{
		{
			IOC:            "1.2.3.4",
			ThreatScore:    50,
			SourcesQueried: []string{"virustotal", "alienvault-otx", "abusech"},
			RawVendorData:  map[string]any{"virustotal": 1},
		},
	}

	summary := Aggregate(records)

	want := 1.0 / 3.0
	if summary.Confidence != want {
		t.Errorf("Confidence = %v, want %v", summary.Confidence, want)
	}
}

func TestBandThreatLevel(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  models.ThreatLevel
	}{
		{"zero", 0, models.ThreatClean},
		{"low", 10, models.ThreatLow},
		{"medium boundary", 25, models.ThreatMedium},
		{"high boundary", 50, models.ThreatHigh},
		{"critical boundary", 75, models.ThreatCritical},
		{"max", 100, models.ThreatCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := models.BandThreatLevel(tt.score); got != tt.want {
				t.Errorf("BandThreatLevel(%v) = %v, want %v", tt.score, got, tt.want)
			}
		})
	}
}
