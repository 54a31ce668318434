package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hive-corporation/sentryline/pkg/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContextStore persists per-alert enrichment rows, one per context
// kind (§3: "1..3 rows per alert").
type ContextStore struct {
	db *pgxpool.Pool
}

func NewContextStore(db *pgxpool.Pool) *ContextStore {
	return &ContextStore{db: db}
}

// Upsert writes or replaces one context row, keyed on (alert_id, context_type).
func (s *ContextStore) Upsert(ctx context.Context, ec models.EnrichmentContext) error {
	data, err := json.Marshal(ec.Data)
	if err != nil {
		return fmt.Errorf("store: marshal context data: %w", err)
	}
	query := `
		INSERT INTO alert_context (alert_id, context_type, source, status, data, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (alert_id, context_type) DO UPDATE SET
			source = EXCLUDED.source, status = EXCLUDED.status,
			data = EXCLUDED.data, collected_at = EXCLUDED.collected_at
	`
	_, err = s.db.Exec(ctx, query, ec.AlertID, ec.ContextType, ec.Source, ec.Status, data, ec.CollectedAt)
	if err != nil {
		return fmt.Errorf("store: upsert context: %w", err)
	}
	return nil
}

// FindByAlertID returns every context row collected so far for an alert.
func (s *ContextStore) FindByAlertID(ctx context.Context, alertID string) ([]models.EnrichmentContext, error) {
	query := `
		SELECT alert_id, context_type, source, status, data, collected_at
		FROM alert_context WHERE alert_id = $1
	`
	rows, err := s.db.Query(ctx, query, alertID)
	if err != nil {
		return nil, fmt.Errorf("store: query context: %w", err)
	}
	defer rows.Close()

	var out []models.EnrichmentContext
	for rows.Next() {
		var ec models.EnrichmentContext
		var raw []byte
		if err := rows.Scan(&ec.AlertID, &ec.ContextType, &ec.Source, &ec.Status, &raw, &ec.CollectedAt); err != nil {
			return nil, fmt.Errorf("store: scan context: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &ec.Data); err != nil {
				return nil, fmt.Errorf("store: unmarshal context data: %w", err)
			}
		}
		out = append(out, ec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate context rows: %w", err)
	}
	return out, nil
}
