package store

import "testing"

func TestNullableStringConvertsEmptyToNil(t *testing.T) {
	if got := nullableString(""); got != nil {
		t.Errorf("nullableString(\"\") = %v, want nil", got)
	}
}

func TestNullableStringPassesThroughNonEmpty(t *testing.T) {
	if got := nullableString("203.0.113.5"); got != "203.0.113.5" {
		t.Errorf("nullableString(...) = %v, want passthrough", got)
	}
}
