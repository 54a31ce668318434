// Package prompt builds the per-alert-type LLM prompts §4.5 step 1
// asks the triage agent to issue, one template per closed-set
// alert_type, in the teacher's buildPrompt string-builder style.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// Input bundles everything a template projects into the prompt text.
type Input struct {
	Alert          models.Alert
	Enrichment     []models.EnrichmentContext
	ThreatSummary  *models.ThreatSummary
	SimilarAlerts  []models.SimilarityHit // top-K, K=3
	DeterministicScore float64
}

const responseContract = `Respond with a single JSON object and nothing else:
{
  "risk_level": "clean|low|medium|high|critical",
  "confidence": 0.0-1.0,
  "reasoning": "concise analyst-facing explanation",
  "recommended_actions": ["action1", "action2"],
  "iocs": ["indicator1", "indicator2"],
  "references": ["https://...", "CVE-2024-..."]
}`

// Template selects one of the five closed-set templates by alert_type,
// falling back to "general" for anything outside {malware, phishing,
// brute_force, data_exfiltration}.
func Template(alertType models.AlertType) func(Input) string {
	switch alertType {
	case models.AlertTypeMalware:
		return buildMalware
	case models.AlertTypePhishing:
		return buildPhishing
	case models.AlertTypeBruteForce:
		return buildBruteForce
	case models.AlertTypeDataExfiltration:
		return buildDataExfiltration
	default:
		return buildGeneral
	}
}

func header(in Input, role string) string {
	var sb strings.Builder
	sb.WriteString(role + "\n\n")
	sb.WriteString(fmt.Sprintf("**Alert ID:** %s\n", in.Alert.AlertID))
	sb.WriteString(fmt.Sprintf("**Alert Type:** %s\n", in.Alert.AlertType))
	sb.WriteString(fmt.Sprintf("**Severity:** %s\n", in.Alert.Severity))
	sb.WriteString(fmt.Sprintf("**Description:** %s\n", in.Alert.Description))
	if in.Alert.SourceIP != "" {
		sb.WriteString(fmt.Sprintf("**Source IP:** %s\n", in.Alert.SourceIP))
	}
	if in.Alert.TargetIP != "" {
		sb.WriteString(fmt.Sprintf("**Target IP:** %s\n", in.Alert.TargetIP))
	}
	if in.Alert.FileHash != "" {
		sb.WriteString(fmt.Sprintf("**File Hash:** %s\n", in.Alert.FileHash))
	}
	sb.WriteString(fmt.Sprintf("**Deterministic Risk Score:** %.1f/100\n\n", in.DeterministicScore))
	return sb.String()
}

func enrichmentSection(in Input) string {
	if len(in.Enrichment) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("**Enrichment Context:**\n")
	for _, ec := range in.Enrichment {
		sb.WriteString(fmt.Sprintf("- %s (%s, status=%s): %v\n", ec.ContextType, ec.Source, ec.Status, ec.Data))
	}
	sb.WriteString("\n")
	return sb.String()
}

func threatIntelSection(in Input) string {
	if in.ThreatSummary == nil || len(in.ThreatSummary.Records) == 0 {
		return "**Threat Intelligence:** No indicators matched any configured source.\n\n"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Threat Intelligence:** aggregate score %.1f, level=%s, confidence=%.2f\n",
		in.ThreatSummary.Score, in.ThreatSummary.Level, in.ThreatSummary.Confidence))
	for _, rec := range in.ThreatSummary.Records {
		sb.WriteString(fmt.Sprintf("- %s (%s): score=%.1f, sources_hit=%s\n", rec.IOC, rec.IOCType, rec.ThreatScore, strings.Join(rec.SourcesHit, ",")))
	}
	sb.WriteString("\n")
	return sb.String()
}

func similaritySection(in Input) string {
	if len(in.SimilarAlerts) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("**Similar Historical Alerts:**\n")
	for _, hit := range in.SimilarAlerts {
		sb.WriteString(fmt.Sprintf("- alert_id=%s similarity=%.2f risk_level=%s\n", hit.AlertID, hit.Similarity, hit.Entry.RiskLevel))
	}
	sb.WriteString("\n")
	return sb.String()
}

func buildMalware(in Input) string {
	var sb strings.Builder
	sb.WriteString(header(in, "You are a malware analyst reviewing an endpoint detection alert."))
	sb.WriteString(enrichmentSection(in))
	sb.WriteString(threatIntelSection(in))
	sb.WriteString(similaritySection(in))
	sb.WriteString("Focus on: persistence mechanisms, C2 communication, lateral-movement risk, and whether the file hash or process is known-malicious.\n\n")
	sb.WriteString(responseContract)
	return sb.String()
}

func buildPhishing(in Input) string {
	var sb strings.Builder
	sb.WriteString(header(in, "You are a security analyst reviewing a suspected phishing alert."))
	sb.WriteString(enrichmentSection(in))
	sb.WriteString(threatIntelSection(in))
	sb.WriteString(similaritySection(in))
	sb.WriteString("Focus on: sender/domain reputation, credential-harvest indicators, and whether any user already interacted with the lure.\n\n")
	sb.WriteString(responseContract)
	return sb.String()
}

func buildBruteForce(in Input) string {
	var sb strings.Builder
	sb.WriteString(header(in, "You are a security analyst reviewing a suspected brute-force/credential-stuffing alert."))
	sb.WriteString(enrichmentSection(in))
	sb.WriteString(threatIntelSection(in))
	sb.WriteString(similaritySection(in))
	sb.WriteString("Focus on: source IP reputation, target account privilege level, and whether any attempt succeeded.\n\n")
	sb.WriteString(responseContract)
	return sb.String()
}

func buildDataExfiltration(in Input) string {
	var sb strings.Builder
	sb.WriteString(header(in, "You are a security analyst reviewing a suspected data-exfiltration alert. Treat this as high-stakes by default."))
	sb.WriteString(enrichmentSection(in))
	sb.WriteString(threatIntelSection(in))
	sb.WriteString(similaritySection(in))
	sb.WriteString("Focus on: destination reputation, volume/sensitivity of data involved, and asset/user privilege level.\n\n")
	sb.WriteString(responseContract)
	return sb.String()
}

func buildGeneral(in Input) string {
	var sb strings.Builder
	sb.WriteString(header(in, "You are a cybersecurity analyst reviewing a security alert."))
	sb.WriteString(enrichmentSection(in))
	sb.WriteString(threatIntelSection(in))
	sb.WriteString(similaritySection(in))
	sb.WriteString(responseContract)
	return sb.String()
}
