package models

// RecommendedAction is one ordered remediation suggestion, §3.
type RecommendedAction struct {
	Action      string `json:"action"`
	Priority    int    `json:"priority"`
	Automatable bool   `json:"automatable"`
	Owner       string `json:"owner,omitempty"`
}

// TriageResult is at most one row per alert, upserted on alert_id, §3.
type TriageResult struct {
	AlertID             string              `json:"alert_id"`
	RiskScore           float64             `json:"risk_score"`
	RiskLevel           ThreatLevel         `json:"risk_level"`
	Confidence          float64             `json:"confidence"`
	AnalysisText        string              `json:"analysis_text"`
	KeyFindings         []string            `json:"key_findings"`
	RecommendedActions  []RecommendedAction `json:"recommended_actions"`
	IOCsExtracted       []IOC               `json:"iocs_extracted"`
	ModelUsed           string              `json:"model_used"`
	ProcessingMS        int64               `json:"processing_ms"`
	RequiresHumanReview bool                `json:"requires_human_review"`
	ResultVersion       int64               `json:"result_version"`
}

// RiskLevelFromScore maps the deterministic 0-100 score onto the same
// banding used for threat-intel levels (§4.5 reuses the §4.4 bands
// implicitly via "risk_level ∈ {high, critical}" language in §8).
func RiskLevelFromScore(score float64) ThreatLevel {
	return BandThreatLevel(score)
}

// SimilarityIndexEntry is the external vector store's per-alert record, §3/§6.
// Embedding is optional on the wire: index callers may leave it empty and
// let the similarity-search service derive it from Description (§4.7
// indexing), or precompute and send it directly.
type SimilarityIndexEntry struct {
	AlertID     string      `json:"alert_id"`
	Embedding   []float32   `json:"embedding,omitempty"`
	AlertType   AlertType   `json:"alert_type"`
	Severity    Severity    `json:"severity"`
	RiskLevel   ThreatLevel `json:"risk_level"`
	Description string      `json:"description,omitempty"`
	Timestamp   int64       `json:"timestamp"`
}

// SimilarityHit is one top-K result from a similarity query, §4.7.
type SimilarityHit struct {
	AlertID    string  `json:"alert_id"`
	Similarity float64 `json:"similarity"`
	Entry      SimilarityIndexEntry `json:"entry"`
}
