package normalizer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hive-corporation/sentryline/pkg/broker"
	"github.com/hive-corporation/sentryline/pkg/models"
)

type fakeDedup struct {
	seen map[string]bool
}

func (f *fakeDedup) SeenFingerprint(ctx context.Context, fingerprint string, window time.Duration) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[fingerprint] {
		return false, nil
	}
	f.seen[fingerprint] = true
	return true, nil
}

type fakeStatusStore struct {
	statuses map[string]models.Status
}

func (f *fakeStatusStore) UpdateStatus(ctx context.Context, alertID string, status models.Status) error {
	if f.statuses == nil {
		f.statuses = map[string]models.Status{}
	}
	f.statuses[alertID] = status
	return nil
}

type fakePublisher struct {
	published []models.Envelope
}

func (f *fakePublisher) PublishJSON(ctx context.Context, topic, key string, v any, headers map[string]string) error {
	env, _ := v.(models.Envelope)
	f.published = append(f.published, env)
	return nil
}

func rawMessage(t *testing.T, alertID string, ts time.Time) broker.Message {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{
		"alert_id":    alertID,
		"alert_type":  string(models.AlertTypeMalware),
		"severity":    string(models.SeverityHigh),
		"description": "beacon to 203.0.113.5",
		"source_ip":   "203.0.113.5",
		"timestamp":   ts.Format(time.RFC3339),
	})
	env := models.Envelope{
		Alert: models.Alert{
			AlertID:    alertID,
			Source:     "generic",
			RawPayload: payload,
			Timestamp:  ts,
		},
	}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return broker.Message{Value: raw}
}

func TestHandleRawPublishesFirstOccurrenceWithExtractedIOCs(t *testing.T) {
	dedup, statuses, pub := &fakeDedup{}, &fakeStatusStore{}, &fakePublisher{}
	svc := NewService(dedup, statuses, pub, 5*time.Minute)

	ts := time.Now().UTC()
	if err := svc.HandleRaw(context.Background(), rawMessage(t, "a1", ts)); err != nil {
		t.Fatalf("HandleRaw() error = %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}
	if len(pub.published[0].IOCs) == 0 {
		t.Error("expected IOCs to be extracted onto the normalized envelope")
	}
}

func TestHandleRawMarksDuplicateWithoutPublishing(t *testing.T) {
	dedup, statuses, pub := &fakeDedup{}, &fakeStatusStore{}, &fakePublisher{}
	svc := NewService(dedup, statuses, pub, 5*time.Minute)

	ts := time.Now().UTC()
	if err := svc.HandleRaw(context.Background(), rawMessage(t, "a1", ts)); err != nil {
		t.Fatalf("first HandleRaw() error = %v", err)
	}
	if err := svc.HandleRaw(context.Background(), rawMessage(t, "a1", ts)); err != nil {
		t.Fatalf("second HandleRaw() error = %v", err)
	}

	if len(pub.published) != 1 {
		t.Errorf("published = %d, want 1 (duplicate must not republish)", len(pub.published))
	}
	if statuses.statuses["a1"] != models.StatusDuplicate {
		t.Errorf("status = %q, want duplicate", statuses.statuses["a1"])
	}
}
