package llmrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Service holds the registry and per-model health state, and proxies
// completion calls to the chosen provider endpoint (§4.6).
type Service struct {
	mu       sync.RWMutex
	registry []Model
	health   map[string]*HealthStatus
	client   *http.Client
}

func NewService(registry []Model) *Service {
	health := make(map[string]*HealthStatus, len(registry))
	for _, m := range registry {
		health[m.ModelID] = &HealthStatus{Healthy: true}
	}
	return &Service{registry: registry, health: health, client: &http.Client{Timeout: 10 * time.Second}}
}

// Select implements §4.6's tier derivation plus failover: if every
// model in the chosen tier is unhealthy, the next tier down is tried;
// all tiers unhealthy returns ErrNoModelAvailable.
var ErrNoModelAvailable = fmt.Errorf("llmrouter: no_model_available")

func (s *Service) Select(task, complexity string) (Model, error) {
	tier := Route(task, complexity)
	order := tierFallbackOrder(tier)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range order {
		for _, m := range s.registry {
			if m.Tier != t {
				continue
			}
			if h := s.health[m.ModelID]; h == nil || h.Healthy {
				return m, nil
			}
		}
	}
	return Model{}, ErrNoModelAvailable
}

// tierFallbackOrder starts at the requested tier and then tries the
// remaining tiers, cheaper/faster ones first and high-reasoning last,
// matching §4.6's "next tier is tried" language.
func tierFallbackOrder(start Tier) []Tier {
	switch start {
	case TierHighReasoning:
		return []Tier{TierHighReasoning, TierBalanced, TierFast}
	case TierBalanced:
		return []Tier{TierBalanced, TierFast, TierHighReasoning}
	default:
		return []Tier{TierFast, TierBalanced, TierHighReasoning}
	}
}

// ProbeAll runs a lightweight health probe against every registered
// model's provider endpoint. Called on a 30s ticker, §4.6.
func (s *Service) ProbeAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, m := range s.registry {
		ok := s.probe(ctx, m)
		s.health[m.ModelID].RecordProbe(ok, now)
	}
}

func (s *Service) probe(ctx context.Context, m Model) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.ProviderEndpoint, nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

type completionRequest struct {
	Model    string `json:"model"`
	Messages []map[string]string `json:"messages"`
}

// Complete proxies a completion call to the given model's provider
// endpoint using an OpenAI-compatible chat/completions body, which
// DeepSeek/Qwen-class endpoints both accept.
func (s *Service) Complete(ctx context.Context, m Model, apiKey, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model: m.ModelID,
		Messages: []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.ProviderEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llmrouter: provider call failed: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("llmrouter: decode provider response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("llmrouter: empty provider response")
	}
	return out.Choices[0].Message.Content, nil
}
