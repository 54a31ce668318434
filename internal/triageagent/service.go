package triageagent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hive-corporation/sentryline/internal/triageagent/llmclient"
	"github.com/hive-corporation/sentryline/internal/triageagent/prompt"
	"github.com/hive-corporation/sentryline/pkg/broker"
	"github.com/hive-corporation/sentryline/pkg/models"
)

// TriageWriter is the narrow store surface the service needs.
type TriageWriter interface {
	Upsert(ctx context.Context, r *models.TriageResult) error
}

type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any, headers map[string]string) error
}

// ReviewNotifier is the optional SOAR-adjacent sink for alerts flagged
// requires_human_review (§4.5). Nil disables notification entirely.
type ReviewNotifier interface {
	NotifyTriage(alert models.Alert, result models.TriageResult) error
}

const similarityTopK = 3

// Service implements S5 end to end: deterministic scoring, guardrails,
// LLM augmentation, merge, persistence, and emission (§4.5).
type Service struct {
	llm        llmclient.Client
	similarity SimilarityClient
	store      TriageWriter
	pub        Publisher
	notifier   ReviewNotifier
}

func NewService(llm llmclient.Client, similarity SimilarityClient, store TriageWriter, pub Publisher) *Service {
	return &Service{llm: llm, similarity: similarity, store: store, pub: pub}
}

// WithNotifier attaches an optional human-review sink, §4.5.
func (s *Service) WithNotifier(n ReviewNotifier) *Service {
	s.notifier = n
	return s
}

// HandleThreatScored is the broker.Handler for alert.threat-scored.
func (s *Service) HandleThreatScored(ctx context.Context, msg broker.Message) error {
	start := time.Now()

	var env models.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("triageagent: unmarshal envelope: %w", err)
	}
	a := env.Alert

	assetCtx, userCtx, assetPresent, userPresent := extractContext(env.Enrichment)

	var similar []models.SimilarityHit
	if s.similarity != nil {
		searchCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		hits, err := s.similarity.Search(searchCtx, a, similarityTopK)
		cancel()
		if err == nil {
			similar = hits
		}
	}

	threatScore := 0.0
	if env.ThreatSummary != nil {
		threatScore = env.ThreatSummary.Score
	}

	detScore := DeterministicScore(ScoreInput{
		Severity:             a.Severity,
		AlertType:            a.AlertType,
		ThreatScore:          threatScore,
		AssetCriticality:     assetCtx.Criticality,
		Exploitability:       ExploitabilitySignals{},
		SimilarHighRiskCount: countRecentHighRisk(similar),
	})

	confidence := Confidence(ConfidenceInput{
		SeverityPresent:         a.Severity.Valid(),
		ThreatIntelPopulated:    env.ThreatSummary != nil && len(env.ThreatSummary.Records) > 0,
		AssetContextPresent:     assetPresent,
		UserContextPresent:      userPresent,
		SimilarHistoryAvailable: len(similar) > 0,
	})

	analysis, modelUsed := s.augment(ctx, a, env, assetCtx, similar, detScore)

	// LLM non-response (parse failure, unreachable, no client) drops
	// confidence per §8 scenario 3: "requires_human_review=true (because
	// confidence drops below 0.5 when LLM fails)". A guardrail pre-filter
	// answer is not a non-response and keeps its confidence.
	if modelUsed == "fallback" {
		confidence = minFloat(confidence, 0.49)
	}

	result := merge(a, env.IOCs, detScore, confidence, analysis, modelUsed, similar, start)
	result.RequiresHumanReview = RequiresHumanReview(result.RiskScore, result.Confidence, a.AlertType)

	if err := s.store.Upsert(ctx, &result); err != nil {
		return fmt.Errorf("triageagent: persist triage result: %w", err)
	}

	if s.notifier != nil && result.RequiresHumanReview {
		go func() {
			if err := s.notifier.NotifyTriage(a, result); err != nil {
				log.Printf("triageagent: notify review: %v", err)
			}
		}()
	}

	if s.similarity != nil {
		s.similarity.IndexAsync(models.SimilarityIndexEntry{
			AlertID:     a.AlertID,
			AlertType:   a.AlertType,
			Severity:    a.Severity,
			RiskLevel:   result.RiskLevel,
			Description: a.Description,
			Timestamp:   time.Now().UTC().Unix(),
		})
	}

	outEnv := env.NextStage(time.Now().UTC())
	outEnv.Triage = &result

	headers := map[string]string{"correlation_id": env.Headers.CorrelationID, "alert_id": a.AlertID}
	if err := s.pub.PublishJSON(ctx, broker.TopicTriaged, a.AlertID, outEnv, headers); err != nil {
		return fmt.Errorf("triageagent: publish result: %w", err)
	}
	return nil
}

// augment implements §4.5 steps 1-5: guardrail pre-filter, prompt
// build, router-then-direct completion, parse with fallback.
func (s *Service) augment(ctx context.Context, a models.Alert, env models.Envelope, assetCtx models.AssetContext, similar []models.SimilarityHit, detScore float64) (*LLMAnalysis, string) {
	if analysis, skip := PreLLMSkip(env.IOCs, env.ThreatSummary); skip {
		return analysis, analysis.ModelUsed
	}

	if s.llm == nil {
		return nil, "fallback"
	}

	complexity := Complexity(scoreOrZero(env.ThreatSummary), assetCtx.Criticality, a.Severity)
	tmpl := prompt.Template(a.AlertType)
	userPrompt := tmpl(prompt.Input{
		Alert:              a,
		Enrichment:         env.Enrichment,
		ThreatSummary:      env.ThreatSummary,
		SimilarAlerts:      similar,
		DeterministicScore: detScore,
	})

	llmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	text, modelUsed, err := s.llm.Complete(llmCtx, "You are an expert cybersecurity analyst. Respond with JSON only.", userPrompt, complexity)
	if err != nil {
		return nil, "fallback"
	}

	analysis, err := parseAnalysis(text)
	if err != nil {
		return nil, "fallback"
	}
	analysis.ModelUsed = modelUsed
	analysis = PostLLMAdjust(analysis, env.ThreatSummary)
	return analysis, modelUsed
}

// merge implements §4.5's merging rule: deterministic risk_score is
// authoritative; LLM risk_level/reasoning are used when parseable;
// recommended_actions and iocs_extracted are the UNION of the
// template/observed defaults and whatever the LLM additionally surfaced.
func merge(a models.Alert, observedIOCs []models.IOC, detScore, confidence float64, analysis *LLMAnalysis, modelUsed string, similar []models.SimilarityHit, start time.Time) models.TriageResult {
	riskLevel := models.RiskLevelFromScore(detScore)
	analysisText := ""
	actions := defaultRecommendations(riskLevel)
	iocs := append([]models.IOC{}, observedIOCs...)

	if analysis != nil {
		if analysis.RiskLevel != "" {
			riskLevel = analysis.RiskLevel
			actions = defaultRecommendations(riskLevel)
		}
		analysisText = analysis.Reasoning
		actions = append(actions, analysis.RecommendedActions...)
		iocs = append(iocs, analysis.IOCs...)
	}
	if modelUsed == "" {
		modelUsed = "fallback"
	}

	return models.TriageResult{
		AlertID:            a.AlertID,
		RiskScore:          detScore,
		RiskLevel:          riskLevel,
		Confidence:         confidence,
		AnalysisText:       analysisText,
		KeyFindings:        []string{},
		RecommendedActions: dedupActions(actions),
		IOCsExtracted:      models.DedupIOCs(iocs),
		ModelUsed:          modelUsed,
		ProcessingMS:       processingDuration(start),
	}
}

// dedupActions drops duplicate (action, priority) pairs so a union of
// template defaults and LLM-suggested actions doesn't repeat entries.
func dedupActions(actions []models.RecommendedAction) []models.RecommendedAction {
	seen := make(map[string]bool, len(actions))
	out := make([]models.RecommendedAction, 0, len(actions))
	for _, act := range actions {
		key := fmt.Sprintf("%s|%d", act.Action, act.Priority)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, act)
	}
	return out
}

func extractContext(rows []models.EnrichmentContext) (asset models.AssetContext, user models.UserContext, assetPresent, userPresent bool) {
	for _, ec := range rows {
		if ec.Data == nil {
			continue
		}
		raw, err := json.Marshal(ec.Data)
		if err != nil {
			continue
		}
		switch ec.ContextType {
		case models.ContextAsset:
			if json.Unmarshal(raw, &asset) == nil {
				assetPresent = true
			}
		case models.ContextUser:
			if json.Unmarshal(raw, &user) == nil {
				userPresent = true
			}
		}
	}
	return
}

// countRecentHighRisk approximates the §4.5 historical-multiplier
// signal from the similarity search's top-K hits: counts those at
// risk_level >= high. The service only has top-K (not full matching
// history), so this is a bounded approximation of the full 30-day scan.
func countRecentHighRisk(hits []models.SimilarityHit) int {
	count := 0
	for _, h := range hits {
		if h.Entry.RiskLevel == models.ThreatHigh || h.Entry.RiskLevel == models.ThreatCritical {
			count++
		}
	}
	return count
}

func scoreOrZero(summary *models.ThreatSummary) float64 {
	if summary == nil {
		return 0
	}
	return summary.Score
}
