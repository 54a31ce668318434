package models

import (
	"testing"
	"time"
)

func validAlert(now time.Time) *Alert {
	return &Alert{
		AlertID:     "a1",
		AlertType:   AlertTypeMalware,
		Severity:    SeverityHigh,
		Description: "suspicious process",
		SourceIP:    "203.0.113.5",
		Timestamp:   now,
	}
}

func TestValidateAcceptsWellFormedAlert(t *testing.T) {
	now := time.Now().UTC()
	if errs := validAlert(now).Validate(now, 5*time.Minute, 72*time.Hour); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	now := time.Now().UTC()
	a := &Alert{}
	errs := a.Validate(now, 5*time.Minute, 72*time.Hour)

	wantFields := map[string]bool{"alert_id": true, "alert_type": true, "severity": true, "description": true, "timestamp": true}
	got := map[string]bool{}
	for _, e := range errs {
		got[e.Field] = true
	}
	for f := range wantFields {
		if !got[f] {
			t.Errorf("Validate() missing error for required field %q, got %v", f, errs)
		}
	}
}

func TestValidateRejectsMalformedIPAndHash(t *testing.T) {
	now := time.Now().UTC()
	a := validAlert(now)
	a.SourceIP = "not-an-ip"
	a.FileHash = "not-a-hash"

	errs := a.Validate(now, 5*time.Minute, 72*time.Hour)
	got := map[string]bool{}
	for _, e := range errs {
		got[e.Field] = true
	}
	if !got["source_ip"] {
		t.Error("expected source_ip validation error")
	}
	if !got["file_hash"] {
		t.Error("expected file_hash validation error")
	}
}

func TestValidateClockSkewWindow(t *testing.T) {
	now := time.Now().UTC()
	skew := 5 * time.Minute

	tests := []struct {
		name    string
		ts      time.Time
		wantErr bool
	}{
		{"within skew tolerance", now.Add(4 * time.Minute), false},
		{"beyond skew tolerance", now.Add(10 * time.Minute), true},
		{"within max age", now.Add(-71 * time.Hour), false},
		{"older than max age", now.Add(-73 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAlert(tt.ts)
			errs := a.Validate(now, skew, 72*time.Hour)
			hasTimestampErr := false
			for _, e := range errs {
				if e.Field == "timestamp" {
					hasTimestampErr = true
				}
			}
			if hasTimestampErr != tt.wantErr {
				t.Errorf("timestamp error present = %v, want %v (errs=%v)", hasTimestampErr, tt.wantErr, errs)
			}
		})
	}
}

func TestValidHash(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"5d41402abc4b2a76b9719d911017c592", true},           // md5
		{"aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", true},    // sha1
		{"2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae", true}, // sha256
		{"not-a-hash", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidHash(tt.value); got != tt.want {
			t.Errorf("ValidHash(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestSeverityPriorityOrdering(t *testing.T) {
	if SeverityCritical.Priority() <= SeverityHigh.Priority() {
		t.Error("critical must outrank high")
	}
	if SeverityHigh.Priority() <= SeverityMedium.Priority() {
		t.Error("high must outrank medium")
	}
	if SeverityMedium.Priority() <= SeverityLow.Priority() {
		t.Error("medium must outrank low")
	}
	if SeverityLow.Priority() <= SeverityInfo.Priority() {
		t.Error("low must outrank info")
	}
	if Severity("bogus").Priority() != SeverityInfo.Priority() {
		t.Error("unknown severity should fall back to the lowest priority")
	}
}
