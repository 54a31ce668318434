package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditStore is an append-only trail of per-stage events, used to
// reconstruct an alert's path through the pipeline for investigation.
type AuditStore struct {
	db *pgxpool.Pool
}

func NewAuditStore(db *pgxpool.Pool) *AuditStore {
	return &AuditStore{db: db}
}

// Record appends one audit event. detail is marshaled as-is; pass nil
// when there is nothing beyond stage/event worth recording.
func (s *AuditStore) Record(ctx context.Context, alertID, stage, event string, detail any) error {
	var raw []byte
	if detail != nil {
		var err error
		raw, err = json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("store: marshal audit detail: %w", err)
		}
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_log (alert_id, stage, event, detail, occurred_at) VALUES ($1, $2, $3, $4, $5)`,
		alertID, stage, event, raw, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store: insert audit event: %w", err)
	}
	return nil
}
