// Package llmrouter implements the LLM Router leaf service (§4.6):
// a static model registry, tier-based routing policy, and periodic
// health probing that demotes unhealthy models to the next tier.
package llmrouter

import "time"

// Tier is the closed set of model tiers §4.6 ships.
type Tier string

const (
	TierHighReasoning Tier = "high-reasoning"
	TierBalanced      Tier = "balanced"
	TierFast          Tier = "fast"
)

// Model is one static registry entry, §4.6.
type Model struct {
	ModelID          string   `json:"model_id"`
	Tier             Tier     `json:"tier"`
	MaxContext       int      `json:"max_context"`
	CostPer1K        float64  `json:"cost_per_1k"`
	SpeedScore       int      `json:"speed_score"`
	ReasoningScore   int      `json:"reasoning_score"`
	SuitableTasks    []string `json:"suitable_tasks"`
	ProviderEndpoint string   `json:"provider_endpoint"`
}

// DefaultRegistry ships the three tiers named in §4.6: a DeepSeek-class
// high-reasoning model, a Qwen-plus-class balanced model, and a
// Qwen-turbo-class fast model.
func DefaultRegistry() []Model {
	return []Model{
		{
			ModelID: "deepseek-reasoner", Tier: TierHighReasoning,
			MaxContext: 64000, CostPer1K: 0.0055, SpeedScore: 4, ReasoningScore: 9,
			SuitableTasks:    []string{"triage", "deep_analysis"},
			ProviderEndpoint: "https://api.deepseek.com/v1/chat/completions",
		},
		{
			ModelID: "qwen-plus", Tier: TierBalanced,
			MaxContext: 32000, CostPer1K: 0.0008, SpeedScore: 7, ReasoningScore: 6,
			SuitableTasks:    []string{"triage", "summarization"},
			ProviderEndpoint: "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions",
		},
		{
			ModelID: "qwen-turbo", Tier: TierFast,
			MaxContext: 8000, CostPer1K: 0.0002, SpeedScore: 10, ReasoningScore: 4,
			SuitableTasks:    []string{"classification", "triage"},
			ProviderEndpoint: "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions",
		},
	}
}

// Route implements the §4.6 routing policy:
//   - task="triage" ∧ complexity="high" → high-reasoning
//   - task="classification" OR complexity="low" → fast
//   - otherwise → balanced
func Route(task, complexity string) Tier {
	if task == "triage" && complexity == "high" {
		return TierHighReasoning
	}
	if task == "classification" || complexity == "low" {
		return TierFast
	}
	return TierBalanced
}

// HealthStatus tracks consecutive probe failures for one model, §4.6:
// 3 consecutive failures marks it unhealthy until a probe succeeds.
type HealthStatus struct {
	ConsecutiveFailures int
	Healthy             bool
	LastProbedAt        time.Time
}

const unhealthyThreshold = 3

func (h *HealthStatus) RecordProbe(ok bool, at time.Time) {
	h.LastProbedAt = at
	if ok {
		h.ConsecutiveFailures = 0
		h.Healthy = true
		return
	}
	h.ConsecutiveFailures++
	if h.ConsecutiveFailures >= unhealthyThreshold {
		h.Healthy = false
	}
}
