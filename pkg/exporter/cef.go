// Package exporter ports the teacher's CEF/STIX IOC feed exporters onto
// the triage_results table: instead of a raw IOC feed, the downstream
// alert.result surface serves an on-demand feed (see Handler) of
// finished triages read back from the store, one CEF/STIX record per
// extracted IOC, carrying the deterministic risk score and model
// verdict alongside the indicator (SPEC_FULL.md §4 Go-native
// additions, "Exporters").
package exporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// TriageSource is the narrow store surface both exporters need.
type TriageSource interface {
	FindSince(ctx context.Context, since time.Time, limit int) ([]models.TriageResult, error)
}

// CEFExporter exports finished triage results in Common Event Format
// for SIEM ingestion, one line per extracted IOC.
type CEFExporter struct {
	store TriageSource
}

func NewCEFExporter(store TriageSource) *CEFExporter {
	return &CEFExporter{store: store}
}

// Export generates a CEF-formatted feed of triaged alerts since the
// given time (defaults to the last 24h), limited to 10000 rows for
// the same reason the teacher's exporter bounds its query.
func (e *CEFExporter) Export(ctx context.Context, since time.Time) (string, error) {
	if since.IsZero() {
		since = time.Now().Add(-24 * time.Hour)
	}

	results, err := e.store.FindSince(ctx, since, 10000)
	if err != nil {
		return "", fmt.Errorf("exporter: fetch triage results: %w", err)
	}

	var out strings.Builder
	for _, r := range results {
		for _, ioc := range r.IOCsExtracted {
			out.WriteString(formatCEF(r, ioc))
			out.WriteByte('\n')
		}
	}
	return out.String(), nil
}

// formatCEF builds one CEF:0 line per IOC, carrying the triage result's
// risk score/level and model verdict as extension fields.
//
//	CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
func formatCEF(r models.TriageResult, ioc models.IOC) string {
	const vendor, product, version = "Sentryline", "AlertTriage", "1.0"

	signatureID := string(r.RiskLevel)
	name := fmt.Sprintf("%s IOC on %s alert", strings.ToUpper(string(ioc.Type)), r.RiskLevel)
	severity := cefSeverity(r.RiskScore)

	extensions := []string{
		fmt.Sprintf("src=%s", escapeCEF(ioc.Value)),
		"cn1Label=RiskScore",
		fmt.Sprintf("cn1=%d", int(r.RiskScore)),
		"cn2Label=Confidence",
		fmt.Sprintf("cn2=%d", int(r.Confidence*100)),
		"cs1Label=AlertID",
		fmt.Sprintf("cs1=%s", escapeCEF(r.AlertID)),
		"cs2Label=ModelUsed",
		fmt.Sprintf("cs2=%s", escapeCEF(r.ModelUsed)),
		"cs3Label=RequiresHumanReview",
		fmt.Sprintf("cs3=%t", r.RequiresHumanReview),
	}

	return fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
		vendor, product, version, signatureID, name, severity, strings.Join(extensions, " "))
}

// cefSeverity maps the 0-100 deterministic risk score onto CEF's 0-10
// severity scale.
func cefSeverity(riskScore float64) int {
	switch {
	case riskScore >= 90:
		return 10
	case riskScore >= 75:
		return 8
	case riskScore >= 50:
		return 6
	case riskScore >= 25:
		return 4
	default:
		return 2
	}
}

func escapeCEF(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "=", "\\=")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}
