package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hive-corporation/sentryline/pkg/models"
)

const otxBaseURL = "https://otx.alienvault.com/api/v1/indicators"

// OTXSource queries AlienVault OTX's per-indicator "general" section,
// weight 0.30 per §4.4. Grounded on the teacher's OTXProvider
// (X-OTX-API-KEY header, HTTP client shape) but point-lookup rather
// than the teacher's subscribed-pulses feed pull.
type OTXSource struct {
	client *ResilientClient
	apiKey string
}

func NewOTXSource(apiKey string, cfg ResilientConfig) *OTXSource {
	cfg.Name = "alienvault-otx"
	return &OTXSource{
		client: NewResilientClient(8*time.Second, cfg),
		apiKey: apiKey,
	}
}

func (s *OTXSource) Name() string   { return "alienvault-otx" }
func (s *OTXSource) Weight() float64 { return 0.30 }

type otxGeneralResponse struct {
	PulseInfo struct {
		Count int `json:"count"`
	} `json:"pulse_info"`
	Reputation int `json:"reputation"`
}

func (s *OTXSource) Query(ctx context.Context, iocType models.IOCType, value string) (Result, error) {
	if s.apiKey == "" {
		return Result{}, fmt.Errorf("alienvault-otx: api key missing")
	}

	segment, err := otxSegment(iocType)
	if err != nil {
		return Result{}, err
	}

	url := fmt.Sprintf("%s/%s/%s/general", otxBaseURL, segment, value)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("X-OTX-API-KEY", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("alienvault-otx: %w", err)
	}
	defer resp.Body.Close()

	var data otxGeneralResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Result{}, fmt.Errorf("alienvault-otx: decode response: %w", err)
	}

	detected := data.PulseInfo.Count > 0
	score := 0.0
	switch {
	case data.PulseInfo.Count >= 5:
		score = 90
	case data.PulseInfo.Count > 0:
		score = 40 + float64(data.PulseInfo.Count)*10
	}

	raw := map[string]any{"pulse_count": data.PulseInfo.Count, "reputation": data.Reputation}
	return Result{Detected: detected, Score: score, Raw: raw}, nil
}

func otxSegment(iocType models.IOCType) (string, error) {
	switch iocType {
	case models.IOCIPAddress:
		return "IPv4", nil
	case models.IOCDomain:
		return "domain", nil
	case models.IOCFileHash:
		return "file", nil
	case models.IOCURL:
		return "url", nil
	default:
		return "", fmt.Errorf("alienvault-otx: unsupported ioc type %q", iocType)
	}
}
