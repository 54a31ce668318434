// Package tiaggregator implements S4: query every configured threat-intel
// source for every IOC on an alert, cache and persist the per-IOC
// verdicts, and attach a weighted aggregate ThreatSummary before
// forwarding to the triage agent (§4.4).
package tiaggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hive-corporation/sentryline/internal/tiaggregator/sources"
	"github.com/hive-corporation/sentryline/pkg/broker"
	"github.com/hive-corporation/sentryline/pkg/cache"
	"github.com/hive-corporation/sentryline/pkg/models"
)

// JSONCache is the narrow cache surface the service needs.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// IntelStore is the narrow persistence surface the service needs.
type IntelStore interface {
	SaveBatch(ctx context.Context, records []models.ThreatIntelRecord) error
}

type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any, headers map[string]string) error
}

type Service struct {
	sources     []sources.ThreatSource
	cache       JSONCache
	store       IntelStore
	pub         Publisher
	jointDeadline time.Duration
	cacheTTL    time.Duration
}

func NewService(srcs []sources.ThreatSource, cache JSONCache, store IntelStore, pub Publisher, jointDeadline, cacheTTL time.Duration) *Service {
	return &Service{sources: srcs, cache: cache, store: store, pub: pub, jointDeadline: jointDeadline, cacheTTL: cacheTTL}
}

// HandleEnriched is the broker.Handler for alert.enriched.
func (s *Service) HandleEnriched(ctx context.Context, msg broker.Message) error {
	var env models.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("tiaggregator: unmarshal envelope: %w", err)
	}

	iocs := models.DedupIOCs(env.IOCs)

	ctx, cancel := context.WithTimeout(ctx, s.jointDeadline)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	records := make([]models.ThreatIntelRecord, 0, len(iocs))

	for _, ioc := range iocs {
		wg.Add(1)
		go func(ioc models.IOC) {
			defer wg.Done()
			rec := s.lookup(ctx, ioc)
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
		}(ioc)
	}
	wg.Wait()

	if len(records) > 0 {
		if err := s.store.SaveBatch(ctx, records); err != nil {
			return fmt.Errorf("tiaggregator: persist threat intel: %w", err)
		}
	}

	summary := Aggregate(records)

	outEnv := env.NextStage(time.Now().UTC())
	outEnv.ThreatSummary = &summary

	headers := map[string]string{"correlation_id": env.Headers.CorrelationID, "alert_id": env.Alert.AlertID}
	if err := s.pub.PublishJSON(ctx, broker.TopicThreatScored, env.Alert.AlertID, outEnv, headers); err != nil {
		return fmt.Errorf("tiaggregator: publish threat-scored: %w", err)
	}
	return nil
}

// lookup returns the cached record if fresh, otherwise queries every
// source concurrently and caches/returns the aggregated per-IOC record.
func (s *Service) lookup(ctx context.Context, ioc models.IOC) models.ThreatIntelRecord {
	key := cache.ThreatIntelKey(string(ioc.Type), ioc.Value)
	var cached models.ThreatIntelRecord
	if hit, _ := s.cache.GetJSON(ctx, key, &cached); hit {
		return cached
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var weightedScore, weightTotal float64
	sourcesQueried, sourcesHit := []string{}, []string{}
	raw := map[string]any{}

	for _, src := range s.sources {
		wg.Add(1)
		go func(src sources.ThreatSource) {
			defer wg.Done()
			result, err := src.Query(ctx, ioc.Type, ioc.Value)

			mu.Lock()
			defer mu.Unlock()
			sourcesQueried = append(sourcesQueried, src.Name())
			if err != nil {
				return
			}
			weightedScore += result.Score * src.Weight()
			weightTotal += src.Weight()
			if result.Detected {
				sourcesHit = append(sourcesHit, src.Name())
			}
			if result.Raw != nil {
				raw[src.Name()] = result.Raw
			}
		}(src)
	}
	wg.Wait()

	score := 0.0
	if weightTotal > 0 {
		score = weightedScore / weightTotal
	}

	rec := models.ThreatIntelRecord{
		IOC:            ioc.Value,
		IOCType:        ioc.Type,
		ThreatLevel:    models.BandThreatLevel(score),
		ThreatScore:    score,
		SourcesQueried: sourcesQueried,
		SourcesHit:     sourcesHit,
		LastSeen:       time.Now().UTC(),
		RawVendorData:  raw,
	}

	_ = s.cache.SetJSON(ctx, key, rec, s.cacheTTL)
	return rec
}

// Aggregate rolls per-IOC records into the alert-level summary of §4.4:
// the overall score is the max across IOCs (worst indicator wins), and
// confidence is the fraction of source queries that returned a verdict.
func Aggregate(records []models.ThreatIntelRecord) models.ThreatSummary {
	summary := models.ThreatSummary{Records: records, Level: models.ThreatClean}
	if len(records) == 0 {
		summary.Confidence = 1
		return summary
	}

	var queried, answered int
	hitSet := map[string]bool{}
	for _, rec := range records {
		if rec.ThreatScore > summary.Score {
			summary.Score = rec.ThreatScore
		}
		queried += len(rec.SourcesQueried)
		answered += len(rec.SourcesQueried) - missingCount(rec)
		for _, h := range rec.SourcesHit {
			hitSet[h] = true
		}
	}

	summary.Level = models.BandThreatLevel(summary.Score)
	for h := range hitSet {
		summary.SourcesHit = append(summary.SourcesHit, h)
	}
	if queried > 0 {
		summary.Confidence = float64(answered) / float64(queried)
	} else {
		summary.Confidence = 1
	}
	return summary
}

// missingCount approximates sources that were queried but never
// contributed a score: RawVendorData only holds entries for sources
// that answered successfully.
func missingCount(rec models.ThreatIntelRecord) int {
	answered := len(rec.RawVendorData)
	missing := len(rec.SourcesQueried) - answered
	if missing < 0 {
		return 0
	}
	return missing
}
