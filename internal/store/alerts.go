// Package store is the Postgres persistence layer, adapted from the
// teacher's internal/adapter/repository.PostgresRepository: a thin
// pgxpool wrapper with one method per query, no ORM.
package store

import (
	"context"
	"fmt"
	"time"

	sentryerrors "github.com/hive-corporation/sentryline/pkg/errors"
	"github.com/hive-corporation/sentryline/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AlertStore persists the canonical alert row, §3.
type AlertStore struct {
	db    *pgxpool.Pool
	audit *AuditStore
}

func NewAlertStore(db *pgxpool.Pool) *AlertStore {
	return &AlertStore{db: db, audit: NewAuditStore(db)}
}

// Insert persists a newly-ingested alert. A conflict on (alert_id,
// source) means S1 saw this vendor alert before (at-least-once
// redelivery, §4.1) and is treated as a no-op success.
func (s *AlertStore) Insert(ctx context.Context, a *models.Alert) error {
	query := `
		INSERT INTO alerts (
			id, alert_id, source, alert_type, severity, status, description,
			source_ip, target_ip, file_hash, url, asset_id, user_id, process_name,
			timestamp, raw_payload, fingerprint, risk_score, assigned_to, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
		ON CONFLICT (alert_id, source) DO NOTHING
	`
	_, err := s.db.Exec(ctx, query,
		a.ID, a.AlertID, a.Source, a.AlertType, a.Severity, a.Status, a.Description,
		nullableString(a.SourceIP), nullableString(a.TargetIP), nullableString(a.FileHash),
		nullableString(a.URL), nullableString(a.AssetID), nullableString(a.UserID), nullableString(a.ProcessName),
		a.Timestamp, a.RawPayload, nullableString(a.Fingerprint), a.RiskScore, nullableString(a.AssignedTo),
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert alert: %w", err)
	}
	return nil
}

// UpdateStatus transitions an alert's status, used when dedup marks a
// duplicate or when downstream stages finish processing. It appends an
// audit_log entry on every transition, so an alert's path through the
// pipeline can be reconstructed for investigation (§4.1).
func (s *AlertStore) UpdateStatus(ctx context.Context, alertID string, status models.Status) error {
	tag, err := s.db.Exec(ctx, `UPDATE alerts SET status = $1, updated_at = now() WHERE alert_id = $2`, status, alertID)
	if err != nil {
		return fmt.Errorf("store: update alert status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentryerrors.ErrNotFound
	}
	if err := s.audit.Record(ctx, alertID, "alerts", "status_change:"+string(status), nil); err != nil {
		return fmt.Errorf("store: record status audit: %w", err)
	}
	return nil
}

// UpdateRiskScore writes the final risk score back onto the alert row
// for fast listing/sorting without joining triage_results.
func (s *AlertStore) UpdateRiskScore(ctx context.Context, alertID string, score float64) error {
	_, err := s.db.Exec(ctx, `UPDATE alerts SET risk_score = $1, updated_at = now() WHERE alert_id = $2`, score, alertID)
	if err != nil {
		return fmt.Errorf("store: update risk score: %w", err)
	}
	return nil
}

func (s *AlertStore) FindByAlertID(ctx context.Context, alertID string) (*models.Alert, error) {
	query := `
		SELECT id, alert_id, source, alert_type, severity, status, description,
			COALESCE(source_ip, ''), COALESCE(target_ip, ''), COALESCE(file_hash, ''),
			COALESCE(url, ''), COALESCE(asset_id, ''), COALESCE(user_id, ''), COALESCE(process_name, ''),
			timestamp, raw_payload, COALESCE(fingerprint, ''), risk_score, COALESCE(assigned_to, ''),
			created_at, updated_at
		FROM alerts WHERE alert_id = $1
	`
	var a models.Alert
	err := s.db.QueryRow(ctx, query, alertID).Scan(
		&a.ID, &a.AlertID, &a.Source, &a.AlertType, &a.Severity, &a.Status, &a.Description,
		&a.SourceIP, &a.TargetIP, &a.FileHash, &a.URL, &a.AssetID, &a.UserID, &a.ProcessName,
		&a.Timestamp, &a.RawPayload, &a.Fingerprint, &a.RiskScore, &a.AssignedTo,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, sentryerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find alert: %w", err)
	}
	return &a, nil
}

// FindRecentByFingerprint supports a secondary, durable dedup check
// against Postgres for when the Redis SetNX window has already
// expired but the DB retains the original alert, §4.2.
func (s *AlertStore) FindRecentByFingerprint(ctx context.Context, fingerprint string) (*models.Alert, error) {
	query := `
		SELECT id, alert_id, source, alert_type, severity, status, description,
			COALESCE(source_ip, ''), COALESCE(target_ip, ''), COALESCE(file_hash, ''),
			COALESCE(url, ''), COALESCE(asset_id, ''), COALESCE(user_id, ''), COALESCE(process_name, ''),
			timestamp, raw_payload, COALESCE(fingerprint, ''), risk_score, COALESCE(assigned_to, ''),
			created_at, updated_at
		FROM alerts WHERE fingerprint = $1 ORDER BY created_at DESC LIMIT 1
	`
	var a models.Alert
	err := s.db.QueryRow(ctx, query, fingerprint).Scan(
		&a.ID, &a.AlertID, &a.Source, &a.AlertType, &a.Severity, &a.Status, &a.Description,
		&a.SourceIP, &a.TargetIP, &a.FileHash, &a.URL, &a.AssetID, &a.UserID, &a.ProcessName,
		&a.Timestamp, &a.RawPayload, &a.Fingerprint, &a.RiskScore, &a.AssignedTo,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, sentryerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find alert by fingerprint: %w", err)
	}
	return &a, nil
}

// FindStaleNew returns alerts still in status=new older than olderThan,
// candidates for the ingestor's background reconciler to re-publish
// (§4.1: "retry on startup is sufficient").
func (s *AlertStore) FindStaleNew(ctx context.Context, olderThan time.Duration, limit int) ([]models.Alert, error) {
	query := `
		SELECT id, alert_id, source, alert_type, severity, status, description,
			COALESCE(source_ip, ''), COALESCE(target_ip, ''), COALESCE(file_hash, ''),
			COALESCE(url, ''), COALESCE(asset_id, ''), COALESCE(user_id, ''), COALESCE(process_name, ''),
			timestamp, raw_payload, COALESCE(fingerprint, ''), risk_score, COALESCE(assigned_to, ''),
			created_at, updated_at
		FROM alerts
		WHERE status = 'new' AND created_at < now() - $1::interval
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, olderThan.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("store: query stale alerts: %w", err)
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(
			&a.ID, &a.AlertID, &a.Source, &a.AlertType, &a.Severity, &a.Status, &a.Description,
			&a.SourceIP, &a.TargetIP, &a.FileHash, &a.URL, &a.AssetID, &a.UserID, &a.ProcessName,
			&a.Timestamp, &a.RawPayload, &a.Fingerprint, &a.RiskScore, &a.AssignedTo,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan stale alert: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate stale alerts: %w", err)
	}
	return out, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
