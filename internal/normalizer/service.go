// Package normalizer implements S2: convert vendor-specific alert
// shapes into the canonical Alert, extract IOCs, dedup, and forward.
package normalizer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hive-corporation/sentryline/internal/normalizer/handlers"
	"github.com/hive-corporation/sentryline/pkg/broker"
	"github.com/hive-corporation/sentryline/pkg/models"
)

// DedupChecker is the narrow cache surface the service needs.
type DedupChecker interface {
	SeenFingerprint(ctx context.Context, fingerprint string, window time.Duration) (firstSeen bool, err error)
}

// StatusWriter marks duplicate alerts in the store for later audit.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, alertID string, status models.Status) error
}

type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any, headers map[string]string) error
}

type Service struct {
	dedup       DedupChecker
	statusStore StatusWriter
	publisher   Publisher
	window      time.Duration
}

func NewService(dedup DedupChecker, statusStore StatusWriter, publisher Publisher, window time.Duration) *Service {
	return &Service{dedup: dedup, statusStore: statusStore, publisher: publisher, window: window}
}

// HandleRaw is the broker.Handler for alert.raw. It vendor-dispatches,
// extracts IOCs, applies dedup, and forwards the normalized envelope.
func (s *Service) HandleRaw(ctx context.Context, msg broker.Message) error {
	var env models.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("normalizer: unmarshal envelope: %w", err)
	}

	a := env.Alert
	source := a.Source
	if source == "" {
		source = msg.Headers["source"]
	}

	handler := handlers.Dispatch(source)
	normalized, err := handler.Normalize(a.RawPayload)
	if err != nil {
		return fmt.Errorf("normalizer: %s handler: %w", handler.Name(), err)
	}

	// Preserve identity/persistence fields the handler does not own.
	normalized.ID = a.ID
	normalized.Status = a.Status
	normalized.CreatedAt = a.CreatedAt
	normalized.UpdatedAt = time.Now().UTC()
	if normalized.AlertID == "" {
		normalized.AlertID = a.AlertID
	}
	if normalized.Timestamp.IsZero() {
		normalized.Timestamp = a.Timestamp
	}

	normalized.Fingerprint = models.Fingerprint(&normalized, int64(s.window.Seconds()))

	firstSeen, err := s.dedup.SeenFingerprint(ctx, normalized.Fingerprint, s.window)
	if err != nil {
		return fmt.Errorf("normalizer: dedup check: %w", err)
	}
	if !firstSeen {
		if err := s.statusStore.UpdateStatus(ctx, normalized.AlertID, models.StatusDuplicate); err != nil {
			return fmt.Errorf("normalizer: mark duplicate: %w", err)
		}
		return nil
	}

	iocs := models.ExtractIOCs(&normalized, false)

	outEnv := env.NextStage(time.Now().UTC())
	outEnv.Alert = normalized
	outEnv.IOCs = iocs

	headers := map[string]string{
		"correlation_id": env.Headers.CorrelationID,
		"alert_id":       normalized.AlertID,
	}
	if err := s.publisher.PublishJSON(ctx, broker.TopicNormalized, normalized.AlertID, outEnv, headers); err != nil {
		return fmt.Errorf("normalizer: publish normalized: %w", err)
	}

	return nil
}
