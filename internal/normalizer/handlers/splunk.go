package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// splunkEvent is the subset of a Splunk notable-event payload we map.
type splunkEvent struct {
	RuleID      string `json:"rule_id"`
	RuleName    string `json:"rule_name"`
	Urgency     string `json:"urgency"`
	Description string `json:"description"`
	SrcIP       string `json:"src_ip"`
	DestIP      string `json:"dest_ip"`
	FileHash    string `json:"file_hash"`
	URL         string `json:"url"`
	Dest        string `json:"dest"`
	User        string `json:"user"`
	Process     string `json:"process_name"`
	Time        string `json:"_time"`
}

var splunkUrgencyToSeverity = map[string]models.Severity{
	"critical": models.SeverityCritical,
	"high":     models.SeverityHigh,
	"medium":   models.SeverityMedium,
	"low":      models.SeverityLow,
	"informational": models.SeverityInfo,
}

type SplunkHandler struct{}

func (SplunkHandler) Name() string { return "splunk" }

func (SplunkHandler) Normalize(raw json.RawMessage) (models.Alert, error) {
	var ev splunkEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return models.Alert{}, fmt.Errorf("splunk handler: %w", err)
	}

	ts, err := parseTimestamp(ev.Time)
	if err != nil {
		return models.Alert{}, err
	}

	severity, ok := splunkUrgencyToSeverity[ev.Urgency]
	if !ok {
		severity = models.SeverityMedium
	}

	return models.Alert{
		AlertID:     ev.RuleID,
		Source:      "splunk",
		AlertType:   keywordClassify(ev.RuleName),
		Severity:    severity,
		Description: firstNonEmptyString(ev.Description, ev.RuleName),
		SourceIP:    ev.SrcIP,
		TargetIP:    ev.DestIP,
		FileHash:    ev.FileHash,
		URL:         ev.URL,
		AssetID:     ev.Dest,
		UserID:      ev.User,
		ProcessName: ev.Process,
		Timestamp:   ts,
		RawPayload:  raw,
	}, nil
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
