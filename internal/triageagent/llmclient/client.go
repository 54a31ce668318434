// Package llmclient implements §4.5 step 3-4: ask the LLM router to
// choose a model, call it, and fall back to a directly-configured
// provider if the router is unreachable — grounded on the teacher's
// ResilientClient (circuit breaker + backoff) and generalized to a
// router-first, direct-provider-fallback chain.
package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hive-corporation/sentryline/internal/tiaggregator/sources"
)

// Client completes a single prompt and reports which model answered.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, complexity string) (text, modelUsed string, err error)
}

// Chain tries the LLM router first, then a directly-configured
// provider, per §4.5 step 3 ("fall back to a directly-configured
// provider if the router is unreachable").
type Chain struct {
	Router *RouterClient
	Direct *AnthropicClient
}

func (c *Chain) Complete(ctx context.Context, systemPrompt, userPrompt, complexity string) (string, string, error) {
	if c.Router != nil {
		text, model, err := c.Router.Complete(ctx, systemPrompt, userPrompt, complexity)
		if err == nil {
			return text, model, nil
		}
	}
	if c.Direct != nil {
		return c.Direct.Complete(ctx, systemPrompt, userPrompt, complexity)
	}
	return "", "", fmt.Errorf("llmclient: no provider available")
}

// RouterClient calls the LLM Router leaf service's /route then /complete
// endpoints (§4.6).
type RouterClient struct {
	baseURL string
	client  *sources.ResilientClient
}

func NewRouterClient(baseURL string, cfg sources.ResilientConfig) *RouterClient {
	cfg.Name = "llm-router"
	return &RouterClient{baseURL: strings.TrimRight(baseURL, "/"), client: sources.NewResilientClient(30*time.Second, cfg)}
}

type routeRequest struct {
	Task       string `json:"task"`
	Complexity string `json:"complexity"`
}

type routeResponse struct {
	Data struct {
		ModelID         string `json:"model_id"`
		ProviderEndpoint string `json:"provider_endpoint"`
	} `json:"data"`
}

type completeRequest struct {
	ModelID       string `json:"model_id"`
	SystemPrompt  string `json:"system_prompt"`
	UserPrompt    string `json:"user_prompt"`
}

type completeResponse struct {
	Data struct {
		Text     string `json:"text"`
		ModelUsed string `json:"model_used"`
	} `json:"data"`
}

func (r *RouterClient) Complete(ctx context.Context, systemPrompt, userPrompt, complexity string) (string, string, error) {
	routeReq, err := json.Marshal(routeRequest{Task: "triage", Complexity: complexity})
	if err != nil {
		return "", "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/v1/route", strings.NewReader(string(routeReq)))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("llm-router: route: %w", err)
	}
	var route routeResponse
	decErr := json.NewDecoder(resp.Body).Decode(&route)
	resp.Body.Close()
	if decErr != nil {
		return "", "", fmt.Errorf("llm-router: decode route response: %w", decErr)
	}
	if route.Data.ModelID == "" {
		return "", "", fmt.Errorf("llm-router: no_model_available")
	}

	completeBody, err := json.Marshal(completeRequest{ModelID: route.Data.ModelID, SystemPrompt: systemPrompt, UserPrompt: userPrompt})
	if err != nil {
		return "", "", err
	}
	completeReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/v1/complete", strings.NewReader(string(completeBody)))
	if err != nil {
		return "", "", err
	}
	completeReq.Header.Set("Content-Type", "application/json")

	completeResp, err := r.client.Do(completeReq)
	if err != nil {
		return "", "", fmt.Errorf("llm-router: complete: %w", err)
	}
	defer completeResp.Body.Close()

	var out completeResponse
	if err := json.NewDecoder(completeResp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("llm-router: decode complete response: %w", err)
	}
	return out.Data.Text, out.Data.ModelUsed, nil
}

// AnthropicClient is the directly-configured fallback provider §4.5
// step 3 falls back to when the router is unreachable.
type AnthropicClient struct {
	client anthropic.Client
	model  anthropic.Model
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

func (a *AnthropicClient) Complete(ctx context.Context, systemPrompt, userPrompt, complexity string) (string, string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("anthropic: %w", err)
	}
	if len(msg.Content) == 0 {
		return "", "", fmt.Errorf("anthropic: empty response")
	}
	return msg.Content[0].Text, string(a.model), nil
}
