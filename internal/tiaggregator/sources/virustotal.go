package sources

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hive-corporation/sentryline/pkg/models"
)

const virusTotalBaseURL = "https://www.virustotal.com/api/v3"

// VirusTotalSource queries the VT v3 REST API, weight 0.40 per §4.4.
type VirusTotalSource struct {
	client *ResilientClient
	apiKey string
}

func NewVirusTotalSource(apiKey string, cfg ResilientConfig) *VirusTotalSource {
	cfg.Name = "virustotal"
	return &VirusTotalSource{
		client: NewResilientClient(8*time.Second, cfg),
		apiKey: apiKey,
	}
}

func (s *VirusTotalSource) Name() string   { return "virustotal" }
func (s *VirusTotalSource) Weight() float64 { return 0.40 }

type vtAnalysisStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`
	Undetected int `json:"undetected"`
}

type vtResponse struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats vtAnalysisStats `json:"last_analysis_stats"`
			Reputation        int             `json:"reputation"`
		} `json:"attributes"`
	} `json:"data"`
}

func (s *VirusTotalSource) Query(ctx context.Context, iocType models.IOCType, value string) (Result, error) {
	if s.apiKey == "" {
		return Result{}, fmt.Errorf("virustotal: api key missing")
	}

	path, err := vtPath(iocType, value)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, virusTotalBaseURL+path, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("x-apikey", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("virustotal: %w", err)
	}
	defer resp.Body.Close()

	var vt vtResponse
	if err := json.NewDecoder(resp.Body).Decode(&vt); err != nil {
		return Result{}, fmt.Errorf("virustotal: decode response: %w", err)
	}

	stats := vt.Data.Attributes.LastAnalysisStats
	total := stats.Malicious + stats.Suspicious + stats.Harmless + stats.Undetected
	detected := stats.Malicious+stats.Suspicious > 0

	score := 0.0
	if total > 0 {
		score = float64(stats.Malicious*100+stats.Suspicious*50) / float64(total)
	}

	raw := map[string]any{
		"malicious":  stats.Malicious,
		"suspicious": stats.Suspicious,
		"reputation": vt.Data.Attributes.Reputation,
	}
	return Result{Detected: detected, Score: score, Raw: raw}, nil
}

func vtPath(iocType models.IOCType, value string) (string, error) {
	switch iocType {
	case models.IOCIPAddress:
		return "/ip_addresses/" + value, nil
	case models.IOCDomain:
		return "/domains/" + value, nil
	case models.IOCFileHash:
		return "/files/" + value, nil
	case models.IOCURL:
		id := base64.RawURLEncoding.EncodeToString([]byte(value))
		return "/urls/" + strings.TrimRight(id, "="), nil
	default:
		return "", fmt.Errorf("virustotal: unsupported ioc type %q", iocType)
	}
}
