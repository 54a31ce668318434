package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// qradarOffense is the subset of a QRadar offense payload we map.
type qradarOffense struct {
	ID            int64  `json:"id"`
	Description   string `json:"description"`
	Magnitude     int    `json:"magnitude"`
	OffenseType   string `json:"offense_type"`
	SourceAddress string `json:"source_address"`
	DestAddress   string `json:"destination_address"`
	Username      string `json:"username"`
	AssetName     string `json:"asset_name"`
	StartTime     string `json:"start_time"`
}

type QRadarHandler struct{}

func (QRadarHandler) Name() string { return "qradar" }

func (QRadarHandler) Normalize(raw json.RawMessage) (models.Alert, error) {
	var ev qradarOffense
	if err := json.Unmarshal(raw, &ev); err != nil {
		return models.Alert{}, fmt.Errorf("qradar handler: %w", err)
	}

	ts, err := parseTimestamp(ev.StartTime)
	if err != nil {
		return models.Alert{}, err
	}

	return models.Alert{
		AlertID:     fmt.Sprintf("qradar-%d", ev.ID),
		Source:      "qradar",
		AlertType:   keywordClassify(firstNonEmptyString(ev.OffenseType, ev.Description)),
		Severity:    magnitudeToSeverity(ev.Magnitude),
		Description: ev.Description,
		SourceIP:    ev.SourceAddress,
		TargetIP:    ev.DestAddress,
		AssetID:     ev.AssetName,
		UserID:      ev.Username,
		Timestamp:   ts,
		RawPayload:  raw,
	}, nil
}

// magnitudeToSeverity maps QRadar's 0-10 magnitude scale onto severity.
func magnitudeToSeverity(magnitude int) models.Severity {
	switch {
	case magnitude >= 9:
		return models.SeverityCritical
	case magnitude >= 7:
		return models.SeverityHigh
	case magnitude >= 4:
		return models.SeverityMedium
	case magnitude >= 1:
		return models.SeverityLow
	default:
		return models.SeverityInfo
	}
}
