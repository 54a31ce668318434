package ingestor

import (
	"context"
	"log"
	"time"

	"github.com/hive-corporation/sentryline/pkg/broker"
	"github.com/hive-corporation/sentryline/pkg/models"
)

// StaleLister is the narrow store surface the reconciler needs.
type StaleLister interface {
	FindStaleNew(ctx context.Context, olderThan time.Duration, limit int) ([]models.Alert, error)
}

// Reconciler re-emits alerts stuck in status=new, the ticker-driven
// sweep the teacher's ingester cmd used for batch flushing, retargeted
// here at recovering publishes that failed after a successful DB
// insert (§4.1's "background reconciler re-emits it").
type Reconciler struct {
	store     StaleLister
	publisher Publisher
	interval  time.Duration
	staleAfter time.Duration
}

func NewReconciler(store StaleLister, publisher Publisher, interval, staleAfter time.Duration) *Reconciler {
	return &Reconciler{store: store, publisher: publisher, interval: interval, staleAfter: staleAfter}
}

// Run blocks, sweeping on each tick until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	stale, err := r.store.FindStaleNew(ctx, r.staleAfter, 500)
	if err != nil {
		log.Printf("ingestor: reconciler sweep failed: %v", err)
		return
	}
	for _, a := range stale {
		env := models.Envelope{
			Alert: a,
			Headers: models.Headers{
				CorrelationID: a.ID.String(),
				AlertID:       a.AlertID,
				StageTS:       time.Now().UTC(),
			},
		}
		headers := map[string]string{"correlation_id": a.ID.String(), "alert_id": a.AlertID}
		if err := r.publisher.PublishJSON(ctx, broker.TopicIngested, a.AlertID, env, headers); err != nil {
			log.Printf("ingestor: reconciler republish failed for %s: %v", a.AlertID, err)
			continue
		}
		log.Printf("ingestor: reconciler republished stale alert %s", a.AlertID)
	}
}
