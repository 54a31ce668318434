package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// genericPayload is the catch-all shape: a source already emitting
// close to the canonical field names.
type genericPayload struct {
	AlertID     string `json:"alert_id"`
	AlertType   string `json:"alert_type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	SourceIP    string `json:"source_ip"`
	TargetIP    string `json:"target_ip"`
	FileHash    string `json:"file_hash"`
	URL         string `json:"url"`
	AssetID     string `json:"asset_id"`
	UserID      string `json:"user_id"`
	ProcessName string `json:"process_name"`
	Timestamp   string `json:"timestamp"`
}

type GenericHandler struct{}

func (GenericHandler) Name() string { return "generic" }

func (GenericHandler) Normalize(raw json.RawMessage) (models.Alert, error) {
	var p genericPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Alert{}, fmt.Errorf("generic handler: %w", err)
	}

	ts, err := parseTimestamp(p.Timestamp)
	if err != nil {
		return models.Alert{}, err
	}

	alertType := models.AlertType(p.AlertType)
	if !alertType.Valid() {
		alertType = keywordClassify(p.Description)
	}

	return models.Alert{
		AlertID:     p.AlertID,
		Source:      "generic",
		AlertType:   alertType,
		Severity:    models.Severity(p.Severity),
		Description: p.Description,
		SourceIP:    p.SourceIP,
		TargetIP:    p.TargetIP,
		FileHash:    p.FileHash,
		URL:         p.URL,
		AssetID:     p.AssetID,
		UserID:      p.UserID,
		ProcessName: p.ProcessName,
		Timestamp:   ts,
		RawPayload:  raw,
	}, nil
}
