package llmrouter

import (
	"testing"
	"time"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name       string
		task       string
		complexity string
		want       Tier
	}{
		{"triage high complexity", "triage", "high", TierHighReasoning},
		{"classification", "classification", "medium", TierFast},
		{"low complexity", "summarization", "low", TierFast},
		{"default balanced", "triage", "medium", TierBalanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Route(tt.task, tt.complexity); got != tt.want {
				t.Errorf("Route(%q, %q) = %v, want %v", tt.task, tt.complexity, got, tt.want)
			}
		})
	}
}

func TestHealthStatusUnhealthyAfterThreeFailures(t *testing.T) {
	h := &HealthStatus{Healthy: true}
	now := time.Now()

	h.RecordProbe(false, now)
	if !h.Healthy {
		t.Fatal("expected still healthy after 1 failure")
	}
	h.RecordProbe(false, now)
	if !h.Healthy {
		t.Fatal("expected still healthy after 2 failures")
	}
	h.RecordProbe(false, now)
	if h.Healthy {
		t.Fatal("expected unhealthy after 3 consecutive failures")
	}

	h.RecordProbe(true, now)
	if !h.Healthy || h.ConsecutiveFailures != 0 {
		t.Fatal("expected a successful probe to reset health immediately")
	}
}

func TestTierFallbackOrderDegrades(t *testing.T) {
	order := tierFallbackOrder(TierHighReasoning)
	if order[0] != TierHighReasoning || order[len(order)-1] != TierFast {
		t.Errorf("tierFallbackOrder(high-reasoning) = %v, want to start high and end fast", order)
	}
}
