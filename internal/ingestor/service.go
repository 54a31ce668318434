// Package ingestor implements S1: accept alerts over HTTP, validate,
// persist, and publish to alert.raw, adapted from the teacher's REST
// handler plus the ingester cmd's fan-out/flush idiom.
package ingestor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hive-corporation/sentryline/pkg/broker"
	sentryerrors "github.com/hive-corporation/sentryline/pkg/errors"
	"github.com/hive-corporation/sentryline/pkg/models"
)

// AlertWriter is the persistence surface the service needs, narrowed
// from the full internal/store.AlertStore the way the teacher narrows
// PostgresRepository behind ports.IOCRepository.
type AlertWriter interface {
	Insert(ctx context.Context, a *models.Alert) error
	UpdateStatus(ctx context.Context, alertID string, status models.Status) error
	FindByAlertID(ctx context.Context, alertID string) (*models.Alert, error)
}

// Publisher is the narrow broker surface the service needs.
type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any, headers map[string]string) error
}

type Service struct {
	store       AlertWriter
	publisher   Publisher
	dedupWindow int64
	clockSkew   time.Duration
	maxAge      time.Duration
}

func NewService(store AlertWriter, publisher Publisher, dedupWindowSeconds int64, clockSkew, maxAge time.Duration) *Service {
	return &Service{store: store, publisher: publisher, dedupWindow: dedupWindowSeconds, clockSkew: clockSkew, maxAge: maxAge}
}

// IngestResult is the per-alert outcome returned to the HTTP caller.
type IngestResult struct {
	IngestionID string
	AlertID     string
	Status      string
	Errors      []models.ValidationError
}

// Ingest implements the §4.1 persistence-before-publish contract: the
// alert row must commit before the broker publish is attempted, so a
// publish failure never loses an accepted alert (it stays status=new
// for the background reconciler to re-emit).
func (s *Service) Ingest(ctx context.Context, a *models.Alert) (IngestResult, error) {
	now := time.Now().UTC()

	if errs := a.Validate(now, s.clockSkew, s.maxAge); len(errs) > 0 {
		return IngestResult{Errors: errs}, sentryerrors.ErrValidation
	}

	a.ID = uuid.New()
	a.Status = models.StatusNew
	a.Fingerprint = models.Fingerprint(a, s.dedupWindow)
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := s.store.Insert(ctx, a); err != nil {
		return IngestResult{}, fmt.Errorf("ingestor: persist alert: %w", err)
	}

	headers := map[string]string{
		"correlation_id": a.ID.String(),
		"alert_id":       a.AlertID,
		"priority":       strconv.Itoa(a.Severity.Priority()),
	}
	env := models.Envelope{
		Alert: *a,
		Headers: models.Headers{
			CorrelationID: a.ID.String(),
			AlertID:       a.AlertID,
			StageTS:       now,
		},
	}

	if err := s.publisher.PublishJSON(ctx, broker.TopicIngested, a.AlertID, env, headers); err != nil {
		// DB insert already committed; the reconciler will retry the
		// publish later. The HTTP caller still sees success since the
		// alert is durably recorded, per §4.1's "why persist before publish".
		return IngestResult{IngestionID: a.ID.String(), AlertID: a.AlertID, Status: "queued"}, nil
	}

	return IngestResult{IngestionID: a.ID.String(), AlertID: a.AlertID, Status: "queued"}, nil
}

// Status returns the current persisted state of an alert for GET /alerts/{id}.
func (s *Service) Status(ctx context.Context, alertID string) (*models.Alert, error) {
	return s.store.FindByAlertID(ctx, alertID)
}
