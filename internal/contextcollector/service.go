// Package contextcollector implements S3: run the network, asset,
// and user sub-collectors concurrently under a joint timeout, cache
// their results, persist enrichment rows, and forward alert.enriched.
package contextcollector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hive-corporation/sentryline/internal/contextcollector/providers"
	"github.com/hive-corporation/sentryline/pkg/broker"
	"github.com/hive-corporation/sentryline/pkg/models"
)

// JSONCache is the narrow cache surface the service needs, matching
// pkg/cache.Cache's GetJSON/SetJSON, §4.3 ("write-through, TTL=1h").
type JSONCache interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// ContextWriter is the narrow store surface the service needs.
type ContextWriter interface {
	Upsert(ctx context.Context, ec models.EnrichmentContext) error
}

type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any, headers map[string]string) error
}

type Service struct {
	network providers.NetworkProvider
	asset   providers.AssetProvider
	user    providers.UserProvider

	cache   JSONCache
	store   ContextWriter
	pub     Publisher

	jointTimeout time.Duration
	cacheTTL     time.Duration
}

func NewService(network providers.NetworkProvider, asset providers.AssetProvider, user providers.UserProvider, cache JSONCache, store ContextWriter, pub Publisher, jointTimeout time.Duration) *Service {
	return &Service{
		network: network, asset: asset, user: user,
		cache: cache, store: store, pub: pub,
		jointTimeout: jointTimeout, cacheTTL: time.Hour,
	}
}

// HandleNormalized is the broker.Handler for alert.normalized.
func (s *Service) HandleNormalized(ctx context.Context, msg broker.Message) error {
	var env models.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("contextcollector: unmarshal envelope: %w", err)
	}
	a := env.Alert

	ctx, cancel := context.WithTimeout(ctx, s.jointTimeout)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var rows []models.EnrichmentContext

	collect := func(contextType models.ContextType, source string, fetch func() (map[string]any, error)) {
		defer wg.Done()

		data, err := fetch()
		status, data := enrichmentOutcome(data, err, ctx.Err())

		ec := models.EnrichmentContext{
			AlertID:     a.AlertID,
			ContextType: contextType,
			Source:      source,
			Status:      status,
			Data:        data,
			CollectedAt: time.Now().UTC(),
			TTLHint:     s.cacheTTL,
		}
		mu.Lock()
		rows = append(rows, ec)
		mu.Unlock()
	}

	if a.SourceIP != "" || a.TargetIP != "" {
		wg.Add(1)
		go collect(models.ContextNetwork, s.network.Name(), func() (map[string]any, error) {
			return s.networkData(ctx, a)
		})
	}
	if a.AssetID != "" {
		wg.Add(1)
		go collect(models.ContextAsset, s.asset.Name(), func() (map[string]any, error) {
			return s.assetData(ctx, a.AssetID)
		})
	}
	if a.UserID != "" {
		wg.Add(1)
		go collect(models.ContextUser, s.user.Name(), func() (map[string]any, error) {
			return s.userData(ctx, a.UserID)
		})
	}

	wg.Wait()

	for _, ec := range rows {
		if err := s.store.Upsert(ctx, ec); err != nil {
			return fmt.Errorf("contextcollector: persist %s context: %w", ec.ContextType, err)
		}
	}

	outEnv := env.NextStage(time.Now().UTC())
	outEnv.Enrichment = append(outEnv.Enrichment, rows...)

	headers := map[string]string{"correlation_id": env.Headers.CorrelationID, "alert_id": a.AlertID}
	if err := s.pub.PublishJSON(ctx, broker.TopicContextual, a.AlertID, outEnv, headers); err != nil {
		return fmt.Errorf("contextcollector: publish enriched: %w", err)
	}
	return nil
}

func (s *Service) networkData(ctx context.Context, a models.Alert) (map[string]any, error) {
	ip := a.TargetIP
	if ip == "" {
		ip = a.SourceIP
	}
	key := "enrich:network:" + ip
	var nc models.NetworkContext
	if hit, _ := s.cache.GetJSON(ctx, key, &nc); hit {
		return toMap(nc)
	}
	nc, err := s.network.Lookup(ctx, ip)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, key, nc, s.cacheTTL)
	return toMap(nc)
}

func (s *Service) assetData(ctx context.Context, assetID string) (map[string]any, error) {
	key := "enrich:asset:" + assetID
	var ac models.AssetContext
	if hit, _ := s.cache.GetJSON(ctx, key, &ac); hit {
		return toMap(ac)
	}
	ac, err := s.asset.Lookup(ctx, assetID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, key, ac, s.cacheTTL)
	return toMap(ac)
}

func (s *Service) userData(ctx context.Context, userID string) (map[string]any, error) {
	key := "enrich:user:" + userID
	var uc models.UserContext
	if hit, _ := s.cache.GetJSON(ctx, key, &uc); hit {
		return toMap(uc)
	}
	uc, err := s.user.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, key, uc, s.cacheTTL)
	return toMap(uc)
}

// enrichmentOutcome decides a sub-collector's status and returned data:
// a fetch error or an expired joint timeout both degrade to partial
// enrichment with no data, per §4.3's "don't block on a slow source".
func enrichmentOutcome(data map[string]any, fetchErr, ctxErr error) (models.EnrichmentStatus, map[string]any) {
	if fetchErr != nil || ctxErr != nil {
		return models.EnrichmentPartial, nil
	}
	return models.EnrichmentOK, data
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
