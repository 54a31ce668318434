// Package models holds the canonical Alert record and its per-stage
// extensions. A single shape travels the whole pipeline; each stage
// deserializes the envelope, appends the section it owns, and
// reserializes. The vendor's original payload is carried opaquely in
// RawPayload; fields the structs do not declare are not kept.
package models

import (
	"encoding/json"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type AlertType string

const (
	AlertTypeMalware           AlertType = "malware"
	AlertTypePhishing          AlertType = "phishing"
	AlertTypeBruteForce        AlertType = "brute_force"
	AlertTypeDDoS              AlertType = "ddos"
	AlertTypeDataExfiltration  AlertType = "data_exfiltration"
	AlertTypeUnauthorizedAcc   AlertType = "unauthorized_access"
	AlertTypePolicyViolation   AlertType = "policy_violation"
	AlertTypeAnomaly           AlertType = "anomaly"
	AlertTypeVulnerability     AlertType = "vulnerability"
	AlertTypeIntrusion         AlertType = "intrusion"
	AlertTypeRansomware        AlertType = "ransomware" // not in the closed set of §3 but used by §4.5/§8 scenarios
	AlertTypeOther             AlertType = "other"
)

var validAlertTypes = map[AlertType]bool{
	AlertTypeMalware: true, AlertTypePhishing: true, AlertTypeBruteForce: true,
	AlertTypeDDoS: true, AlertTypeDataExfiltration: true, AlertTypeUnauthorizedAcc: true,
	AlertTypePolicyViolation: true, AlertTypeAnomaly: true, AlertTypeVulnerability: true,
	AlertTypeIntrusion: true, AlertTypeRansomware: true, AlertTypeOther: true,
}

func (t AlertType) Valid() bool { return validAlertTypes[t] }

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// Priority maps severity to broker delivery priority, per §4.1.
func (s Severity) Priority() int {
	switch s {
	case SeverityCritical:
		return 10
	case SeverityHigh:
		return 8
	case SeverityMedium:
		return 5
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 1
	default:
		return 1
	}
}

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusAssigned   Status = "assigned"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusDuplicate  Status = "duplicate"
)

// Alert is the canonical unit of work, §3.
type Alert struct {
	ID         uuid.UUID `json:"id"`
	AlertID    string    `json:"alert_id"`
	Source     string    `json:"source"`
	AlertType  AlertType `json:"alert_type"`
	Severity   Severity  `json:"severity"`
	Status     Status    `json:"status"`
	Description string   `json:"description"`

	SourceIP    string `json:"source_ip,omitempty"`
	TargetIP    string `json:"target_ip,omitempty"`
	FileHash    string `json:"file_hash,omitempty"`
	URL         string `json:"url,omitempty"`
	AssetID     string `json:"asset_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	ProcessName string `json:"process_name,omitempty"`

	Timestamp  time.Time       `json:"timestamp"`
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`

	Fingerprint string   `json:"fingerprint,omitempty"`
	RiskScore   *float64 `json:"risk_score,omitempty"`
	AssignedTo  string   `json:"assigned_to,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidationError describes one failed field, mirroring the REST
// handler's {code, message, details} envelope (§6/§7).
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	md5Re    = regexp.MustCompile(`^[a-fA-F0-9]{32}$`)
	sha1Re   = regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
	sha256Re = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)
)

// ValidHash reports whether value matches MD5, SHA1, or SHA256 hex shape.
func ValidHash(value string) bool {
	return md5Re.MatchString(value) || sha1Re.MatchString(value) || sha256Re.MatchString(value)
}

// Validate enforces the §4.1 validation contract. It never mutates the
// alert; the caller decides what to do with the returned errors.
func (a *Alert) Validate(now time.Time, clockSkew time.Duration, maxAge time.Duration) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(a.AlertID) == "" {
		errs = append(errs, ValidationError{"alert_id", "required"})
	}
	if !a.AlertType.Valid() {
		errs = append(errs, ValidationError{"alert_type", "unknown alert_type"})
	}
	if !a.Severity.Valid() {
		errs = append(errs, ValidationError{"severity", "unknown severity"})
	}
	if strings.TrimSpace(a.Description) == "" {
		errs = append(errs, ValidationError{"description", "required"})
	}

	if a.SourceIP != "" && net.ParseIP(a.SourceIP) == nil {
		errs = append(errs, ValidationError{"source_ip", "not a valid IP address"})
	}
	if a.TargetIP != "" && net.ParseIP(a.TargetIP) == nil {
		errs = append(errs, ValidationError{"target_ip", "not a valid IP address"})
	}
	if a.FileHash != "" && !ValidHash(a.FileHash) {
		errs = append(errs, ValidationError{"file_hash", "not a valid MD5/SHA1/SHA256 hash"})
	}

	if a.Timestamp.IsZero() {
		errs = append(errs, ValidationError{"timestamp", "required"})
	} else {
		if a.Timestamp.After(now.Add(clockSkew)) {
			errs = append(errs, ValidationError{"timestamp", "timestamp is in the future beyond clock skew tolerance"})
		}
		if a.Timestamp.Before(now.Add(-maxAge)) {
			errs = append(errs, ValidationError{"timestamp", "timestamp is older than the accepted window"})
		}
	}

	return errs
}
