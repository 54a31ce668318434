// Package handlers holds the §4.2 vendor dispatch: pure functions that
// turn one vendor's raw alert shape into the canonical Alert fields,
// mirroring the teacher's provider package's "one file per source,
// common interface" layout (internal/adapter/provider/*.go).
package handlers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// FormatHandler normalizes one vendor's raw payload shape.
type FormatHandler interface {
	Name() string
	Normalize(raw json.RawMessage) (models.Alert, error)
}

// Dispatch picks a handler by the source hint on the raw envelope,
// falling back to Generic when the hint is unrecognized (§4.2).
func Dispatch(source string) FormatHandler {
	switch source {
	case "splunk":
		return SplunkHandler{}
	case "qradar":
		return QRadarHandler{}
	case "cef":
		return CEFHandler{}
	default:
		return GenericHandler{}
	}
}

// keywordClassify maps a free-text rule/event name onto the closed
// alert_type set, for vendors whose payload carries no explicit
// classification field. Falls back to AlertTypeOther.
func keywordClassify(text string) models.AlertType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "ransom"):
		return models.AlertTypeRansomware
	case strings.Contains(lower, "malware"), strings.Contains(lower, "trojan"), strings.Contains(lower, "virus"):
		return models.AlertTypeMalware
	case strings.Contains(lower, "phish"):
		return models.AlertTypePhishing
	case strings.Contains(lower, "brute") || strings.Contains(lower, "credential stuffing"):
		return models.AlertTypeBruteForce
	case strings.Contains(lower, "ddos") || strings.Contains(lower, "denial of service"):
		return models.AlertTypeDDoS
	case strings.Contains(lower, "exfil"):
		return models.AlertTypeDataExfiltration
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "privilege escalation"):
		return models.AlertTypeUnauthorizedAcc
	case strings.Contains(lower, "policy"):
		return models.AlertTypePolicyViolation
	case strings.Contains(lower, "anomaly") || strings.Contains(lower, "anomalous"):
		return models.AlertTypeAnomaly
	case strings.Contains(lower, "cve") || strings.Contains(lower, "vulnerab"):
		return models.AlertTypeVulnerability
	case strings.Contains(lower, "intrusion") || strings.Contains(lower, "lateral movement"):
		return models.AlertTypeIntrusion
	default:
		return models.AlertTypeOther
	}
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("handlers: unrecognized timestamp format %q", s)
}

func unixMillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
