package models

import "time"

// IOCType is the closed set of indicator kinds extracted by the
// normalizer (§4.2) and queried by the threat-intel aggregator (§4.4).
type IOCType string

const (
	IOCIPAddress IOCType = "ip"
	IOCDomain    IOCType = "domain"
	IOCFileHash  IOCType = "file_hash"
	IOCURL       IOCType = "url"
)

// IOC is one indicator observed on an alert, before threat-intel lookup.
type IOC struct {
	Value string  `json:"value"`
	Type  IOCType `json:"type"`
}

// DedupIOCs removes repeated (value, type) pairs, preserving first-seen order.
func DedupIOCs(iocs []IOC) []IOC {
	seen := make(map[IOC]bool, len(iocs))
	out := make([]IOC, 0, len(iocs))
	for _, i := range iocs {
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

// ThreatLevel bands an aggregate 0-100 threat score, §4.4.
type ThreatLevel string

const (
	ThreatClean    ThreatLevel = "clean"
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// BandThreatLevel implements the score banding rule of §4.4.
func BandThreatLevel(score float64) ThreatLevel {
	switch {
	case score >= 75:
		return ThreatCritical
	case score >= 50:
		return ThreatHigh
	case score >= 25:
		return ThreatMedium
	case score > 0:
		return ThreatLow
	default:
		return ThreatClean
	}
}

// ThreatIntelRecord is one row per (IOC, ioc_type), §3/§6.
type ThreatIntelRecord struct {
	IOC            string      `json:"ioc"`
	IOCType        IOCType     `json:"ioc_type"`
	ThreatLevel    ThreatLevel `json:"threat_level"`
	ThreatScore    float64     `json:"threat_score"`
	SourcesQueried []string    `json:"sources_queried"`
	SourcesHit     []string    `json:"sources_hit"`
	LastSeen       time.Time   `json:"last_seen"`
	RawVendorData  map[string]any `json:"raw_vendor_data,omitempty"`
}

// ThreatSummary is the per-alert aggregate attached to alert.contextualized (§4.4).
type ThreatSummary struct {
	Records    []ThreatIntelRecord `json:"records"`
	Score      float64             `json:"score"`
	Level      ThreatLevel         `json:"level"`
	Confidence float64             `json:"confidence"`
	SourcesHit []string            `json:"sources_hit"`
}
