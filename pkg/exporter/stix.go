package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hive-corporation/sentryline/pkg/models"
)

// STIXExporter exports finished triage results as a STIX 2.1 bundle,
// one indicator object per extracted IOC.
type STIXExporter struct {
	store TriageSource
}

func NewSTIXExporter(store TriageSource) *STIXExporter {
	return &STIXExporter{store: store}
}

func (e *STIXExporter) Export(ctx context.Context, since time.Time) (string, error) {
	if since.IsZero() {
		since = time.Now().Add(-24 * time.Hour)
	}

	results, err := e.store.FindSince(ctx, since, 10000)
	if err != nil {
		return "", fmt.Errorf("exporter: fetch triage results: %w", err)
	}

	bundle := stixBundle{
		Type:        "bundle",
		ID:          fmt.Sprintf("bundle--%s", uuid.New().String()),
		SpecVersion: "2.1",
		Objects:     []stixObject{},
	}
	for _, r := range results {
		for _, ioc := range r.IOCsExtracted {
			bundle.Objects = append(bundle.Objects, toSTIX(r, ioc))
		}
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("exporter: marshal STIX bundle: %w", err)
	}
	return string(data), nil
}

func toSTIX(r models.TriageResult, ioc models.IOC) stixObject {
	now := time.Now().UTC()
	return stixObject{
		Type:           "indicator",
		SpecVersion:    "2.1",
		ID:             fmt.Sprintf("indicator--%s", uuid.New().String()),
		Created:        now.Format(time.RFC3339),
		Modified:       now.Format(time.RFC3339),
		Name:           fmt.Sprintf("%s indicator (%s)", strings.ToUpper(string(ioc.Type)), r.RiskLevel),
		Pattern:        stixPattern(ioc),
		PatternType:    "stix",
		ValidFrom:      now.Format(time.RFC3339),
		IndicatorTypes: stixIndicatorTypes(r.RiskLevel),
		Confidence:     int(r.Confidence * 100),
		Labels:         recommendedActionLabels(r.RecommendedActions),
		ExternalReferences: []externalReference{
			{SourceName: "sentryline-triage-agent", URL: ""},
		},
	}
}

func stixPattern(ioc models.IOC) string {
	switch ioc.Type {
	case models.IOCIPAddress:
		return fmt.Sprintf("[ipv4-addr:value = '%s']", ioc.Value)
	case models.IOCDomain:
		return fmt.Sprintf("[domain-name:value = '%s']", ioc.Value)
	case models.IOCURL:
		return fmt.Sprintf("[url:value = '%s']", ioc.Value)
	case models.IOCFileHash:
		return fmt.Sprintf("[file:hashes.'%s' = '%s']", detectHashType(ioc.Value), ioc.Value)
	default:
		return fmt.Sprintf("[x-sentryline:value = '%s']", ioc.Value)
	}
}

func stixIndicatorTypes(level models.ThreatLevel) []string {
	switch level {
	case models.ThreatCritical, models.ThreatHigh:
		return []string{"malicious-activity"}
	case models.ThreatMedium:
		return []string{"suspicious-activity"}
	default:
		return []string{"anomalous-activity"}
	}
}

func recommendedActionLabels(actions []models.RecommendedAction) []string {
	labels := make([]string, 0, len(actions))
	for _, a := range actions {
		labels = append(labels, a.Action)
	}
	return labels
}

func detectHashType(hash string) string {
	switch len(hash) {
	case 32:
		return "MD5"
	case 40:
		return "SHA-1"
	default:
		return "SHA-256"
	}
}

// STIX 2.1 wire shapes, ported from the teacher's exporter.

type stixBundle struct {
	Type        string       `json:"type"`
	ID          string       `json:"id"`
	SpecVersion string       `json:"spec_version"`
	Objects     []stixObject `json:"objects"`
}

type stixObject struct {
	Type               string              `json:"type"`
	SpecVersion        string              `json:"spec_version"`
	ID                 string              `json:"id"`
	Created            string              `json:"created"`
	Modified           string              `json:"modified"`
	Name               string              `json:"name"`
	Pattern            string              `json:"pattern"`
	PatternType        string              `json:"pattern_type"`
	ValidFrom          string              `json:"valid_from"`
	IndicatorTypes     []string            `json:"indicator_types"`
	Confidence         int                 `json:"confidence"`
	Labels             []string            `json:"labels,omitempty"`
	ExternalReferences []externalReference `json:"external_references,omitempty"`
}

type externalReference struct {
	SourceName string `json:"source_name"`
	URL        string `json:"url,omitempty"`
}
