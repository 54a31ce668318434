package contextcollector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hive-corporation/sentryline/pkg/broker"
	"github.com/hive-corporation/sentryline/pkg/models"
)

func TestEnrichmentOutcomeOKWhenFetchSucceeds(t *testing.T) {
	data := map[string]any{"country": "US"}
	status, got := enrichmentOutcome(data, nil, nil)
	if status != models.EnrichmentOK {
		t.Errorf("status = %q, want ok", status)
	}
	if got["country"] != "US" {
		t.Errorf("data = %v, want passthrough", got)
	}
}

func TestEnrichmentOutcomePartialOnFetchError(t *testing.T) {
	status, data := enrichmentOutcome(map[string]any{"x": 1}, errors.New("lookup failed"), nil)
	if status != models.EnrichmentPartial {
		t.Errorf("status = %q, want partial", status)
	}
	if data != nil {
		t.Errorf("data = %v, want nil on a failed fetch", data)
	}
}

func TestEnrichmentOutcomePartialOnJointTimeout(t *testing.T) {
	status, data := enrichmentOutcome(map[string]any{"x": 1}, nil, context.DeadlineExceeded)
	if status != models.EnrichmentPartial {
		t.Errorf("status = %q, want partial", status)
	}
	if data != nil {
		t.Errorf("data = %v, want nil once the joint timeout has fired", data)
	}
}

func TestToMapRoundTripsStruct(t *testing.T) {
	nc := models.NetworkContext{Country: "US", ASN: "AS64500", IsInternal: false}
	m, err := toMap(nc)
	if err != nil {
		t.Fatalf("toMap() error = %v", err)
	}
	if m["country"] != "US" || m["asn"] != "AS64500" {
		t.Errorf("toMap() = %v, missing expected fields", m)
	}
}

type fakeNetworkProvider struct{ err error }

func (f fakeNetworkProvider) Name() string { return "fake-network" }
func (f fakeNetworkProvider) Lookup(ctx context.Context, ip string) (models.NetworkContext, error) {
	if f.err != nil {
		return models.NetworkContext{}, f.err
	}
	return models.NetworkContext{Country: "US"}, nil
}

type fakeAssetProvider struct{ err error }

func (f fakeAssetProvider) Name() string { return "fake-asset" }
func (f fakeAssetProvider) Lookup(ctx context.Context, assetID string) (models.AssetContext, error) {
	if f.err != nil {
		return models.AssetContext{}, f.err
	}
	return models.AssetContext{Criticality: models.CriticalityHigh}, nil
}

type fakeUserProvider struct{}

func (f fakeUserProvider) Name() string { return "fake-user" }
func (f fakeUserProvider) Lookup(ctx context.Context, userID string) (models.UserContext, error) {
	return models.UserContext{}, errors.New("directory unavailable")
}

type noopCache struct{}

func (noopCache) GetJSON(ctx context.Context, key string, v any) (bool, error) { return false, nil }
func (noopCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	return nil
}

type capturingStore struct {
	rows []models.EnrichmentContext
}

func (c *capturingStore) Upsert(ctx context.Context, ec models.EnrichmentContext) error {
	c.rows = append(c.rows, ec)
	return nil
}

type capturingPublisher struct {
	envelopes []models.Envelope
}

func (c *capturingPublisher) PublishJSON(ctx context.Context, topic, key string, v any, headers map[string]string) error {
	env, _ := v.(models.Envelope)
	c.envelopes = append(c.envelopes, env)
	return nil
}

func TestHandleNormalizedMarksPartialOnSubCollectorFailure(t *testing.T) {
	store := &capturingStore{}
	pub := &capturingPublisher{}
	svc := NewService(
		fakeNetworkProvider{},
		fakeAssetProvider{err: errors.New("cmdb unavailable")},
		fakeUserProvider{},
		noopCache{}, store, pub, time.Second,
	)

	env := models.Envelope{Alert: models.Alert{
		AlertID: "a1", SourceIP: "203.0.113.5", AssetID: "asset-1", UserID: "user-1",
	}}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	if err := svc.HandleNormalized(context.Background(), broker.Message{Value: raw}); err != nil {
		t.Fatalf("HandleNormalized() error = %v", err)
	}

	statuses := map[models.ContextType]models.EnrichmentStatus{}
	for _, r := range store.rows {
		statuses[r.ContextType] = r.Status
	}
	if statuses[models.ContextNetwork] != models.EnrichmentOK {
		t.Errorf("network status = %q, want ok", statuses[models.ContextNetwork])
	}
	if statuses[models.ContextAsset] != models.EnrichmentPartial {
		t.Errorf("asset status = %q, want partial", statuses[models.ContextAsset])
	}
	if statuses[models.ContextUser] != models.EnrichmentPartial {
		t.Errorf("user status = %q, want partial", statuses[models.ContextUser])
	}
	if len(pub.envelopes) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.envelopes))
	}
	if len(pub.envelopes[0].Enrichment) != 3 {
		t.Errorf("enrichment rows forwarded = %d, want 3", len(pub.envelopes[0].Enrichment))
	}
}
