package triageagent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// LLMAnalysis is the §4.5 step-1 contracted JSON shape every prompt
// template asks the model for: {risk_level, confidence, reasoning,
// recommended_actions[], iocs[], references[]}.
type LLMAnalysis struct {
	RiskLevel           models.ThreatLevel          `json:"risk_level"`
	Confidence          float64                     `json:"confidence"`
	Reasoning           string                      `json:"reasoning"`
	RecommendedActions  []models.RecommendedAction  `json:"recommended_actions"`
	IOCs                []models.IOC                `json:"iocs"`
	References          []string                    `json:"references"`
	ModelUsed           string                      `json:"-"`
}

// rawLLMAnalysis matches the wire shape the prompt asks the model to
// emit: recommended_actions/iocs come back as plain strings, which
// parseAnalysis lifts into the richer internal types.
type rawLLMAnalysis struct {
	RiskLevel          string   `json:"risk_level"`
	Confidence         float64  `json:"confidence"`
	Reasoning          string   `json:"reasoning"`
	RecommendedActions []string `json:"recommended_actions"`
	IOCs               []string `json:"iocs"`
	References         []string `json:"references"`
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseAnalysis implements §4.5 step 5: strict JSON first, then
// regex-extract the first JSON object on failure, mirroring the
// teacher's parseResponse markdown-fence stripping.
func parseAnalysis(response string) (*LLMAnalysis, error) {
	jsonStr := stripCodeFence(response)

	var raw rawLLMAnalysis
	err := json.Unmarshal([]byte(jsonStr), &raw)
	if err != nil {
		loc := jsonObjectRe.FindStringIndex(response)
		if loc == nil {
			return nil, fmt.Errorf("triageagent: no JSON object found in LLM response")
		}
		// Decode only the first complete object starting at the first '{';
		// any trailing text or further objects are ignored.
		if err := json.NewDecoder(strings.NewReader(response[loc[0]:])).Decode(&raw); err != nil {
			return nil, fmt.Errorf("triageagent: failed to parse LLM response: %w", err)
		}
	}

	level := models.ThreatLevel(strings.ToLower(strings.TrimSpace(raw.RiskLevel)))
	switch level {
	case models.ThreatClean, models.ThreatLow, models.ThreatMedium, models.ThreatHigh, models.ThreatCritical:
	default:
		level = models.ThreatMedium
	}

	actions := make([]models.RecommendedAction, 0, len(raw.RecommendedActions))
	for i, a := range raw.RecommendedActions {
		actions = append(actions, models.RecommendedAction{Action: a, Priority: i + 1})
	}

	iocs := make([]models.IOC, 0, len(raw.IOCs))
	for _, v := range raw.IOCs {
		iocs = append(iocs, models.IOC{Value: v})
	}

	return &LLMAnalysis{
		RiskLevel:          level,
		Confidence:         clampUnit(raw.Confidence),
		Reasoning:          raw.Reasoning,
		RecommendedActions: actions,
		IOCs:               iocs,
		References:         raw.References,
	}, nil
}

func stripCodeFence(response string) string {
	s := response
	if idx := strings.Index(s, "```json"); idx != -1 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end != -1 {
			s = s[:end]
		}
	} else if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
		if end := strings.Index(s, "```"); end != -1 {
			s = s[:end]
		}
	}
	return strings.TrimSpace(s)
}
