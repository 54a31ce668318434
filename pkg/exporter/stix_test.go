package exporter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hive-corporation/sentryline/pkg/models"
)

func TestSTIXExportProducesValidBundle(t *testing.T) {
	src := fakeTriageSource{results: []models.TriageResult{
		{
			AlertID:   "a1",
			RiskLevel: models.ThreatCritical,
			Confidence: 0.9,
			IOCsExtracted: []models.IOC{
				{Type: models.IOCFileHash, Value: "d41d8cd98f00b204e9800998ecf8427e"},
			},
			RecommendedActions: []models.RecommendedAction{{Action: "isolate_host", Priority: 1}},
		},
	}}

	out, err := NewSTIXExporter(src).Export(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var bundle stixBundle
	if err := json.Unmarshal([]byte(out), &bundle); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if bundle.Type != "bundle" || bundle.SpecVersion != "2.1" {
		t.Errorf("unexpected bundle header: %+v", bundle)
	}
	if len(bundle.Objects) != 1 {
		t.Fatalf("len(Objects) = %d, want 1", len(bundle.Objects))
	}
	obj := bundle.Objects[0]
	if obj.Confidence != 90 {
		t.Errorf("Confidence = %d, want 90", obj.Confidence)
	}
	if obj.Pattern != "[file:hashes.'MD5' = 'd41d8cd98f00b204e9800998ecf8427e']" {
		t.Errorf("unexpected pattern: %q", obj.Pattern)
	}
	if len(obj.Labels) != 1 || obj.Labels[0] != "isolate_host" {
		t.Errorf("unexpected labels: %v", obj.Labels)
	}
}

func TestDetectHashType(t *testing.T) {
	tests := []struct {
		hash string
		want string
	}{
		{"d41d8cd98f00b204e9800998ecf8427e", "MD5"},
		{"da39a3ee5e6b4b0d3255bfef95601890afd80709", "SHA-1"},
		{"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", "SHA-256"},
	}
	for _, tt := range tests {
		if got := detectHashType(tt.hash); got != tt.want {
			t.Errorf("detectHashType(%q) = %q, want %q", tt.hash, got, tt.want)
		}
	}
}
