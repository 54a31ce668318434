package models

import (
	"testing"
	"time"
)

func TestFingerprintStableWithinWindow(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a1 := &Alert{AlertType: AlertTypeMalware, SourceIP: "203.0.113.5", Timestamp: base}
	a2 := &Alert{AlertType: AlertTypeMalware, SourceIP: "203.0.113.5", Timestamp: base.Add(90 * time.Second)}

	if Fingerprint(a1, DefaultDedupWindow) != Fingerprint(a2, DefaultDedupWindow) {
		t.Error("fingerprints should match for alerts within the same dedup window bucket")
	}
}

func TestFingerprintDiffersAcrossWindow(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a1 := &Alert{AlertType: AlertTypeMalware, SourceIP: "203.0.113.5", Timestamp: base}
	a2 := &Alert{AlertType: AlertTypeMalware, SourceIP: "203.0.113.5", Timestamp: base.Add(10 * time.Minute)}

	if Fingerprint(a1, DefaultDedupWindow) == Fingerprint(a2, DefaultDedupWindow) {
		t.Error("fingerprints should differ once alerts fall into different dedup window buckets")
	}
}

func TestFingerprintDiffersByDistinguishingFields(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a1 := &Alert{AlertType: AlertTypeMalware, SourceIP: "203.0.113.5", Timestamp: base}
	a2 := &Alert{AlertType: AlertTypePhishing, SourceIP: "203.0.113.5", Timestamp: base}

	if Fingerprint(a1, DefaultDedupWindow) == Fingerprint(a2, DefaultDedupWindow) {
		t.Error("fingerprints should differ when alert_type differs")
	}
}

func TestFingerprintZeroWindowFallsBackToDefault(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := &Alert{AlertType: AlertTypeMalware, Timestamp: base}

	if Fingerprint(a, 0) != Fingerprint(a, DefaultDedupWindow) {
		t.Error("a zero/negative window should fall back to DefaultDedupWindow")
	}
}
