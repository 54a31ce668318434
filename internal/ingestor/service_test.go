package ingestor

import (
	"context"
	"testing"
	"time"

	sentryerrors "github.com/hive-corporation/sentryline/pkg/errors"
	"github.com/hive-corporation/sentryline/pkg/models"
)

type fakeAlertWriter struct {
	inserted []*models.Alert
}

func (f *fakeAlertWriter) Insert(ctx context.Context, a *models.Alert) error {
	f.inserted = append(f.inserted, a)
	return nil
}

func (f *fakeAlertWriter) UpdateStatus(ctx context.Context, alertID string, status models.Status) error {
	return nil
}

func (f *fakeAlertWriter) FindByAlertID(ctx context.Context, alertID string) (*models.Alert, error) {
	for _, a := range f.inserted {
		if a.AlertID == alertID {
			return a, nil
		}
	}
	return nil, sentryerrors.ErrNotFound
}

type fakePublisher struct {
	calls       int
	lastHeaders map[string]string
}

func (f *fakePublisher) PublishJSON(ctx context.Context, topic, key string, v any, headers map[string]string) error {
	f.calls++
	f.lastHeaders = headers
	return nil
}

func validAlert() *models.Alert {
	return &models.Alert{
		AlertID:     "a1",
		AlertType:   models.AlertTypeMalware,
		Severity:    models.SeverityCritical,
		Description: "test alert",
		Timestamp:   time.Now().UTC(),
	}
}

func TestIngestRejectsInvalidAlert(t *testing.T) {
	store, pub := &fakeAlertWriter{}, &fakePublisher{}
	svc := NewService(store, pub, 300, 5*time.Minute, 72*time.Hour)

	_, err := svc.Ingest(context.Background(), &models.Alert{})
	if !sentryerrors.Is(err, sentryerrors.ErrValidation) {
		t.Fatalf("Ingest() error = %v, want ErrValidation", err)
	}
	if pub.calls != 0 {
		t.Error("an invalid alert must never be published")
	}
	if len(store.inserted) != 0 {
		t.Error("an invalid alert must never be persisted")
	}
}

func TestIngestAssignsFingerprintAndPublishes(t *testing.T) {
	store, pub := &fakeAlertWriter{}, &fakePublisher{}
	svc := NewService(store, pub, 300, 5*time.Minute, 72*time.Hour)

	a := validAlert()
	result, err := svc.Ingest(context.Background(), a)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if a.Fingerprint == "" {
		t.Error("expected a fingerprint to be assigned")
	}
	if result.Status != "queued" {
		t.Errorf("status = %q, want queued", result.Status)
	}
	if pub.calls != 1 {
		t.Errorf("publish calls = %d, want 1", pub.calls)
	}
	if len(store.inserted) != 1 {
		t.Errorf("inserted = %d, want 1", len(store.inserted))
	}
}

func TestIngestPublishHeadersCarryDerivedPriority(t *testing.T) {
	store, pub := &fakeAlertWriter{}, &fakePublisher{}
	svc := NewService(store, pub, 300, 5*time.Minute, 72*time.Hour)

	a := validAlert()
	a.Severity = models.SeverityCritical
	if _, err := svc.Ingest(context.Background(), a); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if got, want := pub.lastHeaders["priority"], "10"; got != want {
		t.Errorf("priority header = %q, want %q", got, want)
	}
}

func TestIngestRejectsStaleTimestamp(t *testing.T) {
	store, pub := &fakeAlertWriter{}, &fakePublisher{}
	svc := NewService(store, pub, 300, 5*time.Minute, time.Hour)

	a := validAlert()
	a.Timestamp = time.Now().UTC().Add(-48 * time.Hour)
	_, err := svc.Ingest(context.Background(), a)
	if !sentryerrors.Is(err, sentryerrors.ErrValidation) {
		t.Fatalf("Ingest() error = %v, want ErrValidation for a stale timestamp", err)
	}
}

func TestStatusReturnsNotFoundForUnknownAlert(t *testing.T) {
	store, pub := &fakeAlertWriter{}, &fakePublisher{}
	svc := NewService(store, pub, 300, 5*time.Minute, 72*time.Hour)

	_, err := svc.Status(context.Background(), "missing")
	if !sentryerrors.Is(err, sentryerrors.ErrNotFound) {
		t.Fatalf("Status() error = %v, want ErrNotFound", err)
	}
}
