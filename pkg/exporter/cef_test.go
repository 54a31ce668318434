package exporter

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hive-corporation/sentryline/pkg/models"
)

type fakeTriageSource struct {
	results []models.TriageResult
}

func (f fakeTriageSource) FindSince(ctx context.Context, since time.Time, limit int) ([]models.TriageResult, error) {
	return f.results, nil
}

func TestCEFExportOneLinePerIOC(t *testing.T) {
	src := fakeTriageSource{results: []models.TriageResult{
		{
			AlertID:   "a1",
			RiskScore: 82,
			RiskLevel: models.ThreatHigh,
			IOCsExtracted: []models.IOC{
				{Type: models.IOCIPAddress, Value: "10.0.0.1"},
				{Type: models.IOCDomain, Value: "evil.example.com"},
			},
		},
	}}

	out, err := NewCEFExporter(src).Export(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "CEF:0|Sentryline|AlertTriage|1.0|high|") {
		t.Errorf("unexpected CEF line: %q", lines[0])
	}
}

func TestCEFSeverityBands(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{{95, 10}, {80, 8}, {60, 6}, {30, 4}, {5, 2}}
	for _, tt := range tests {
		if got := cefSeverity(tt.score); got != tt.want {
			t.Errorf("cefSeverity(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestEscapeCEFEscapesSpecialCharacters(t *testing.T) {
	got := escapeCEF("a|b=c\\d")
	want := `a\|b\=c\\d`
	if got != want {
		t.Errorf("escapeCEF() = %q, want %q", got, want)
	}
}
