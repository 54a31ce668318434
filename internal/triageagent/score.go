// Package triageagent implements S5: combine a deterministic risk
// score with LLM-augmented qualitative analysis into one TriageResult
// per alert (§4.5).
package triageagent

import (
	"time"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// alertTypeMultiplier implements the §4.5 step-4 multiplier table.
func alertTypeMultiplier(t models.AlertType) float64 {
	switch t {
	case models.AlertTypeMalware:
		return 1.2
	case models.AlertTypeDataExfiltration:
		return 1.3
	case models.AlertTypeRansomware:
		return 1.4
	case models.AlertTypePolicyViolation:
		return 0.9
	default:
		return 1.0
	}
}

func severityComponent(s models.Severity) float64 {
	switch s {
	case models.SeverityCritical:
		return 100
	case models.SeverityHigh:
		return 80
	case models.SeverityMedium:
		return 50
	case models.SeverityLow:
		return 30
	case models.SeverityInfo:
		return 10
	default:
		return 10
	}
}

func assetCriticalityComponent(c models.AssetCriticality) float64 {
	switch c {
	case models.CriticalityCritical:
		return 100
	case models.CriticalityHigh:
		return 80
	case models.CriticalityMedium:
		return 50
	case models.CriticalityLow:
		return 30
	default:
		return 20
	}
}

// ExploitabilitySignals carries the known-CVE/has-exploit/exploit-age
// facts §4.5 step 3 derives the exploitability component from. The
// core alert model carries none of these yet, so callers that have no
// vulnerability feed wired in pass the zero value and get the
// documented default.
type ExploitabilitySignals struct {
	KnownCVE        bool
	HasPublicExploit bool
	ExploitAgeDays  int
}

func exploitabilityComponent(sig ExploitabilitySignals) float64 {
	if !sig.KnownCVE {
		return 20
	}
	score := 50.0
	if sig.HasPublicExploit {
		score += 30
	}
	if sig.ExploitAgeDays > 0 && sig.ExploitAgeDays <= 30 {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ScoreInput bundles everything the deterministic scorer needs, §4.5.
type ScoreInput struct {
	Severity        models.Severity
	AlertType       models.AlertType
	ThreatScore     float64 // threat_summary.score, 0 if absent
	AssetCriticality models.AssetCriticality
	Exploitability  ExploitabilitySignals
	SimilarHighRiskCount int // similar past alerts, risk_level >= high, within 30d, same asset/source_ip
}

// DeterministicScore implements §4.5's weighted baseline: severity
// 0.30, threat-intel 0.30, asset-criticality 0.20, exploitability
// 0.20, times the alert-type multiplier, times the 1.1 historical
// multiplier when ≥3 similar high-risk alerts recently occurred —
// clamped to [0, 100] after each multiplication per the spec text.
func DeterministicScore(in ScoreInput) float64 {
	base := severityComponent(in.Severity)*0.30 +
		in.ThreatScore*0.30 +
		assetCriticalityComponent(in.AssetCriticality)*0.20 +
		exploitabilityComponent(in.Exploitability)*0.20

	score := clamp(base * alertTypeMultiplier(in.AlertType))

	if in.SimilarHighRiskCount >= 3 {
		score = clamp(score * 1.1)
	}
	return score
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ConfidenceInput flags which expected input signals were populated, §4.5.
type ConfidenceInput struct {
	SeverityPresent       bool
	ThreatIntelPopulated  bool
	AssetContextPresent   bool
	UserContextPresent    bool
	SimilarHistoryAvailable bool
}

// Confidence is the fraction of the five expected signals present.
func Confidence(in ConfidenceInput) float64 {
	total := 5.0
	present := 0.0
	for _, ok := range []bool{
		in.SeverityPresent, in.ThreatIntelPopulated,
		in.AssetContextPresent, in.UserContextPresent, in.SimilarHistoryAvailable,
	} {
		if ok {
			present++
		}
	}
	return present / total
}

// RequiresHumanReview implements the §4.5 flag rule.
func RequiresHumanReview(riskScore, confidence float64, alertType models.AlertType) bool {
	if riskScore >= 70 || confidence < 0.5 {
		return true
	}
	return alertType == models.AlertTypeDataExfiltration || alertType == models.AlertTypeRansomware
}

// Complexity implements §4.6's derivation of task complexity for LLM
// router tier selection.
func Complexity(threatScore float64, assetCriticality models.AssetCriticality, severity models.Severity) string {
	if threatScore >= 70 || assetCriticality == models.CriticalityCritical ||
		severity == models.SeverityCritical || severity == models.SeverityHigh {
		return "high"
	}
	if severity == models.SeverityLow || severity == models.SeverityInfo {
		return "low"
	}
	return "medium"
}

// defaultRecommendations mirrors the teacher's getDefaultRecommendations,
// generalized into models.RecommendedAction and keyed off ThreatLevel
// bands instead of the teacher's five-tier Severity.
func defaultRecommendations(level models.ThreatLevel) []models.RecommendedAction {
	now := func(p int, automatable bool, action string) models.RecommendedAction {
		return models.RecommendedAction{Action: action, Priority: p, Automatable: automatable}
	}
	switch level {
	case models.ThreatCritical:
		return []models.RecommendedAction{
			now(1, true, "Isolate the affected endpoint immediately"),
			now(1, false, "Initiate incident response procedures"),
			now(2, false, "Conduct forensic analysis"),
			now(2, false, "Check for indicators of lateral movement"),
		}
	case models.ThreatHigh:
		return []models.RecommendedAction{
			now(1, true, "Isolate the endpoint from the network"),
			now(2, false, "Review endpoint activity logs"),
			now(3, false, "Scan for additional compromised systems"),
		}
	case models.ThreatMedium:
		return []models.RecommendedAction{
			now(2, false, "Investigate endpoint activity"),
			now(3, false, "Monitor for suspicious behavior"),
		}
	default:
		return []models.RecommendedAction{
			now(4, false, "Monitor the endpoint"),
			now(5, false, "Document findings for future reference"),
		}
	}
}

// processingDuration returns the whole milliseconds elapsed since start.
func processingDuration(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
