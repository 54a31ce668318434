package store

import "testing"

func TestNextVersionStartsAtOneForNewRow(t *testing.T) {
	if got := nextVersion(0, false); got != 1 {
		t.Errorf("nextVersion(0, false) = %d, want 1", got)
	}
}

func TestNextVersionIncrementsExistingRow(t *testing.T) {
	if got := nextVersion(7, true); got != 8 {
		t.Errorf("nextVersion(7, true) = %d, want 8", got)
	}
}

func TestNextVersionMonotonicAcrossRacingUpdates(t *testing.T) {
	// Simulates two redelivered messages racing the same row lock in
	// sequence: each must see a strictly higher version than the last,
	// never a repeat or a decrease (§9 "result_version is monotonic").
	v1 := nextVersion(0, false)
	v2 := nextVersion(v1, true)
	v3 := nextVersion(v2, true)

	if !(v1 < v2 && v2 < v3) {
		t.Errorf("versions not strictly increasing: %d, %d, %d", v1, v2, v3)
	}
}
