package triageagent

import (
	"strings"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// knownGoodIndicators and highRiskThreatTypes are ported directly from
// the teacher's guardrails.go KnownGoodIndicators/HighRiskThreatTypes.
var knownGoodIndicators = []string{
	"microsoft.com", "windowsupdate.com", "update.microsoft.com", "msftconnecttest.com", "office.com", "live.com",
	"amazonaws.com", "cloudfront.net", "googleapis.com", "gstatic.com", "azure.com",
	"cloudflare.com", "akamai.net", "fastly.net",
	"apple.com", "google.com", "mozilla.org", "ubuntu.com", "debian.org",
}

var highRiskThreatTypes = []string{
	"c2_server", "c2", "command_and_control", "malware_download", "ransomware",
	"botnet", "phishing", "cryptominer", "backdoor", "trojan", "rat", "webshell",
}

func isKnownGoodIndicator(value string) bool {
	v := strings.ToLower(value)
	for _, good := range knownGoodIndicators {
		if strings.Contains(v, good) {
			return true
		}
	}
	return false
}

func isHighRiskThreatType(threatType string) bool {
	t := strings.ToLower(threatType)
	for _, risk := range highRiskThreatTypes {
		if strings.Contains(t, risk) {
			return true
		}
	}
	return false
}

// PreLLMSkip mirrors ApplyPreLLMGuardrails: when every IOC is known-good
// infrastructure, or a threat-intel source already confirmed a
// high-risk threat type, S5 can answer without spending an LLM call.
func PreLLMSkip(iocs []models.IOC, summary *models.ThreatSummary) (*LLMAnalysis, bool) {
	if len(iocs) > 0 {
		allGood := true
		for _, ioc := range iocs {
			if !isKnownGoodIndicator(ioc.Value) {
				allGood = false
				break
			}
		}
		if allGood {
			return &LLMAnalysis{
				RiskLevel:  models.ThreatClean,
				Confidence: 0.95,
				Reasoning:  "All indicators belong to known legitimate infrastructure (Microsoft, Google, cloud providers, CDNs).",
				RecommendedActions: []models.RecommendedAction{
					{Action: "Mark as false positive", Priority: 5},
					{Action: "Adjust detection rules to exclude legitimate services", Priority: 5},
				},
				ModelUsed: "guardrail-pre-filter",
			}, true
		}
	}

	if summary != nil {
		var hit []string
		for _, rec := range summary.Records {
			if isHighRiskThreatType(string(rec.ThreatLevel)) {
				hit = append(hit, string(rec.ThreatLevel))
			}
		}
		for _, h := range summary.SourcesHit {
			if isHighRiskThreatType(h) {
				hit = append(hit, h)
			}
		}
		if len(hit) > 0 {
			return &LLMAnalysis{
				RiskLevel:  models.ThreatHigh,
				Confidence: 0.90,
				Reasoning:  "Confirmed malicious activity in threat intelligence: " + strings.Join(hit, ", "),
				RecommendedActions: []models.RecommendedAction{
					{Action: "Isolate affected endpoint immediately", Priority: 1},
					{Action: "Conduct forensic analysis", Priority: 2},
					{Action: "Check for lateral movement", Priority: 2},
				},
				ModelUsed: "guardrail-pre-filter",
			}, true
		}
	}

	return nil, false
}

// PostLLMAdjust mirrors ApplyPostLLMGuardrails: validate and correct
// the LLM's qualitative analysis against what threat intel actually
// found, so an overconfident or inconsistent model can't override
// hard evidence.
func PostLLMAdjust(analysis *LLMAnalysis, summary *models.ThreatSummary) *LLMAnalysis {
	iocsHit := 0
	uniqueSources := map[string]bool{}
	if summary != nil {
		iocsHit = len(summary.SourcesHit)
		for _, s := range summary.SourcesHit {
			uniqueSources[s] = true
		}
	}

	// Guardrail: cannot be clean/low if threat intel confirmed hits.
	if iocsHit > 0 && (analysis.RiskLevel == models.ThreatClean || analysis.RiskLevel == models.ThreatLow) {
		analysis.RiskLevel = models.ThreatMedium
		analysis.Confidence = clampUnit(analysis.Confidence - 0.2)
	}

	// Guardrail: ≥3 independent sources confirming raises confidence.
	if len(uniqueSources) >= 3 {
		analysis.Confidence = clampUnit(analysis.Confidence + 0.15)
	}

	// Guardrail: without any threat-intel hit, critical is always
	// downgraded to high, and high is kept only when the model is very
	// confident (>= 0.80).
	if iocsHit == 0 {
		if analysis.RiskLevel == models.ThreatCritical {
			analysis.RiskLevel = models.ThreatHigh
			analysis.Confidence = minFloat(analysis.Confidence, 0.75)
		} else if analysis.RiskLevel == models.ThreatHigh && analysis.Confidence < 0.80 {
			analysis.RiskLevel = models.ThreatMedium
			analysis.Confidence = minFloat(analysis.Confidence, 0.70)
		}
	}

	if len(analysis.RecommendedActions) == 0 {
		analysis.RecommendedActions = defaultRecommendations(analysis.RiskLevel)
	}

	return analysis
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
