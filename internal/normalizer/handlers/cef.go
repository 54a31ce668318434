package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// cefPayload wraps one raw CEF:0|... line, the inverse of the
// teacher's CEFExporter.formatCEF.
type cefPayload struct {
	RawCEF string `json:"raw_cef"`
}

type CEFHandler struct{}

func (CEFHandler) Name() string { return "cef" }

func (CEFHandler) Normalize(raw json.RawMessage) (models.Alert, error) {
	var payload cefPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.Alert{}, fmt.Errorf("cef handler: %w", err)
	}

	fields, ext, err := parseCEFLine(payload.RawCEF)
	if err != nil {
		return models.Alert{}, fmt.Errorf("cef handler: %w", err)
	}

	severity := cefSeverityToSeverity(fields.severity)
	alertType := keywordClassify(fields.name)

	a := models.Alert{
		AlertID:     firstNonEmptyString(ext["externalId"], fields.signatureID),
		Source:      "cef",
		AlertType:   alertType,
		Severity:    severity,
		Description: fields.name,
		SourceIP:    ext["src"],
		TargetIP:    ext["dst"],
		FileHash:    ext["fileHash"],
		URL:         ext["request"],
		AssetID:     ext["dhost"],
		UserID:      ext["suser"],
		ProcessName: ext["sproc"],
		RawPayload:  raw,
	}

	if rt, ok := ext["rt"]; ok {
		if ms, err := strconv.ParseInt(rt, 10, 64); err == nil {
			a.Timestamp = unixMillisToTime(ms)
		}
	}

	return a, nil
}

type cefHeader struct {
	vendor      string
	product     string
	version     string
	signatureID string
	name        string
	severity    int
}

// parseCEFLine splits a "CEF:0|Vendor|Product|Version|SigID|Name|Severity|ext" line
// into its header and key=value extension map, unescaping \|, \\, \=.
func parseCEFLine(line string) (cefHeader, map[string]string, error) {
	if !strings.HasPrefix(line, "CEF:") {
		return cefHeader{}, nil, fmt.Errorf("not a CEF line")
	}

	parts := splitUnescaped(line, '|', 8)
	if len(parts) < 8 {
		return cefHeader{}, nil, fmt.Errorf("malformed CEF header: expected 8 pipe-delimited fields, got %d", len(parts))
	}

	severity, _ := strconv.Atoi(parts[6])
	header := cefHeader{
		vendor:      unescapeCEF(parts[1]),
		product:     unescapeCEF(parts[2]),
		version:     unescapeCEF(parts[3]),
		signatureID: unescapeCEF(parts[4]),
		name:        unescapeCEF(parts[5]),
		severity:    severity,
	}

	ext := make(map[string]string)
	for _, kv := range splitUnescaped(parts[7], ' ', -1) {
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			continue
		}
		ext[kv[:eq]] = unescapeCEF(kv[eq+1:])
	}

	return header, ext, nil
}

// splitUnescaped splits s on sep, ignoring occurrences preceded by an
// odd number of backslashes. maxParts <= 0 means unlimited.
func splitUnescaped(s string, sep byte, maxParts int) []string {
	var parts []string
	var cur strings.Builder
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case c == '\\':
			cur.WriteByte(c)
			escaped = true
		case c == sep && (maxParts <= 0 || len(parts) < maxParts-1):
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

func unescapeCEF(s string) string {
	r := strings.NewReplacer(`\|`, "|", `\=`, "=", `\n`, "\n", `\r`, "\r", `\\`, `\`)
	return r.Replace(s)
}

func cefSeverityToSeverity(cefSev int) models.Severity {
	switch {
	case cefSev >= 9:
		return models.SeverityCritical
	case cefSev >= 7:
		return models.SeverityHigh
	case cefSev >= 4:
		return models.SeverityMedium
	case cefSev >= 2:
		return models.SeverityLow
	default:
		return models.SeverityInfo
	}
}
