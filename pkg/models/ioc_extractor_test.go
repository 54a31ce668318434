package models

import "testing"

func TestExtractIOCsTypedFieldsAuthoritative(t *testing.T) {
	a := &Alert{
		SourceIP: "203.0.113.5",
		FileHash: "5d41402abc4b2a76b9719d911017c592",
		URL:      "http://malicious.example.com/payload",
	}
	iocs := ExtractIOCs(a, false)

	want := map[string]IOCType{
		"203.0.113.5":                      IOCIPAddress,
		"5d41402abc4b2a76b9719d911017c592": IOCFileHash,
		"http://malicious.example.com/payload": IOCURL,
		"malicious.example.com":            IOCDomain,
	}
	got := map[string]IOCType{}
	for _, i := range iocs {
		got[i.Value] = i.Type
	}
	for v, typ := range want {
		if got[v] != typ {
			t.Errorf("missing/mismatched IOC %q: got type %q, want %q", v, got[v], typ)
		}
	}
}

func TestExtractIOCsRejectsPrivateIPsByDefault(t *testing.T) {
	a := &Alert{SourceIP: "10.0.0.5"}
	iocs := ExtractIOCs(a, false)
	for _, i := range iocs {
		if i.Value == "10.0.0.5" {
			t.Error("private IP should be excluded when includeNonMeaningfulIPs is false")
		}
	}
}

func TestExtractIOCsIncludesPrivateIPsWhenRequested(t *testing.T) {
	a := &Alert{SourceIP: "10.0.0.5"}
	iocs := ExtractIOCs(a, true)
	found := false
	for _, i := range iocs {
		if i.Value == "10.0.0.5" && i.Type == IOCIPAddress {
			found = true
		}
	}
	if !found {
		t.Error("expected private IP to be included when includeNonMeaningfulIPs is true")
	}
}

func TestExtractIOCsScansFreeTextDescription(t *testing.T) {
	a := &Alert{Description: "beacon to 198.51.100.7 matched hash aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"}
	iocs := ExtractIOCs(a, false)

	var sawIP, sawHash bool
	for _, i := range iocs {
		if i.Value == "198.51.100.7" && i.Type == IOCIPAddress {
			sawIP = true
		}
		if i.Value == "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d" && i.Type == IOCFileHash {
			sawHash = true
		}
	}
	if !sawIP {
		t.Error("expected IP extracted from free text")
	}
	if !sawHash {
		t.Error("expected hash extracted from free text")
	}
}

func TestExtractIOCsDedupesAcrossTypedAndFreeText(t *testing.T) {
	a := &Alert{
		SourceIP:    "203.0.113.5",
		Description: "source was 203.0.113.5 again",
	}
	iocs := ExtractIOCs(a, false)

	count := 0
	for _, i := range iocs {
		if i.Value == "203.0.113.5" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected the repeated IP to be deduped, got %d occurrences", count)
	}
}

func TestDedupIOCsPreservesFirstSeenOrder(t *testing.T) {
	in := []IOC{
		{Value: "a", Type: IOCDomain},
		{Value: "b", Type: IOCDomain},
		{Value: "a", Type: IOCDomain},
	}
	out := DedupIOCs(in)
	if len(out) != 2 || out[0].Value != "a" || out[1].Value != "b" {
		t.Errorf("DedupIOCs() = %v, want [a b] in order", out)
	}
}

func TestBandThreatLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  ThreatLevel
	}{
		{0, ThreatClean},
		{10, ThreatLow},
		{25, ThreatMedium},
		{50, ThreatHigh},
		{75, ThreatCritical},
		{100, ThreatCritical},
	}
	for _, tt := range tests {
		if got := BandThreatLevel(tt.score); got != tt.want {
			t.Errorf("BandThreatLevel(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
