package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hive-corporation/sentryline/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TriageStore persists the single triage row per alert, §3.
type TriageStore struct {
	db *pgxpool.Pool
}

func NewTriageStore(db *pgxpool.Pool) *TriageStore {
	return &TriageStore{db: db}
}

// Upsert writes a triage result, incrementing result_version under a
// row lock so a redelivered S5 message (at-least-once, §6) that races
// a legitimate re-triage still produces a monotonically increasing
// version rather than silently clobbering a newer result (§9).
func (s *TriageStore) Upsert(ctx context.Context, r *models.TriageResult) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin triage upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentVersion int64
	err = tx.QueryRow(ctx, `SELECT result_version FROM triage_results WHERE alert_id = $1 FOR UPDATE`, r.AlertID).Scan(&currentVersion)
	switch err {
	case nil:
		r.ResultVersion = nextVersion(currentVersion, true)
	case pgx.ErrNoRows:
		r.ResultVersion = nextVersion(0, false)
	default:
		return fmt.Errorf("store: lock triage row: %w", err)
	}

	actions, err := json.Marshal(r.RecommendedActions)
	if err != nil {
		return fmt.Errorf("store: marshal recommended actions: %w", err)
	}
	iocs, err := json.Marshal(r.IOCsExtracted)
	if err != nil {
		return fmt.Errorf("store: marshal extracted iocs: %w", err)
	}

	query := `
		INSERT INTO triage_results (
			alert_id, risk_score, risk_level, confidence, analysis_text, key_findings,
			recommended_actions, iocs_extracted, model_used, processing_ms,
			requires_human_review, result_version, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (alert_id) DO UPDATE SET
			risk_score = EXCLUDED.risk_score, risk_level = EXCLUDED.risk_level,
			confidence = EXCLUDED.confidence, analysis_text = EXCLUDED.analysis_text,
			key_findings = EXCLUDED.key_findings, recommended_actions = EXCLUDED.recommended_actions,
			iocs_extracted = EXCLUDED.iocs_extracted, model_used = EXCLUDED.model_used,
			processing_ms = EXCLUDED.processing_ms, requires_human_review = EXCLUDED.requires_human_review,
			result_version = EXCLUDED.result_version, updated_at = now()
	`
	_, err = tx.Exec(ctx, query,
		r.AlertID, r.RiskScore, r.RiskLevel, r.Confidence, r.AnalysisText, r.KeyFindings,
		actions, iocs, r.ModelUsed, r.ProcessingMS, r.RequiresHumanReview, r.ResultVersion,
	)
	if err != nil {
		return fmt.Errorf("store: upsert triage result: %w", err)
	}

	// §4.5: "Update alerts.risk_score transactionally with the result write."
	if _, err := tx.Exec(ctx, `UPDATE alerts SET risk_score = $1, updated_at = now() WHERE alert_id = $2`, r.RiskScore, r.AlertID); err != nil {
		return fmt.Errorf("store: update alert risk_score: %w", err)
	}

	return tx.Commit(ctx)
}

// nextVersion computes the monotonic result_version decision behind the
// row-locked read in Upsert: absent a prior row the result starts at 1,
// otherwise the lock winner's version increments, so a redelivered
// message racing a legitimate re-triage can't clobber a newer result.
func nextVersion(current int64, found bool) int64 {
	if !found {
		return 1
	}
	return current + 1
}

func (s *TriageStore) FindByAlertID(ctx context.Context, alertID string) (*models.TriageResult, error) {
	query := `
		SELECT alert_id, risk_score, risk_level, confidence, analysis_text, key_findings,
			recommended_actions, iocs_extracted, model_used, processing_ms,
			requires_human_review, result_version
		FROM triage_results WHERE alert_id = $1
	`
	var r models.TriageResult
	var actionsRaw, iocsRaw []byte
	err := s.db.QueryRow(ctx, query, alertID).Scan(
		&r.AlertID, &r.RiskScore, &r.RiskLevel, &r.Confidence, &r.AnalysisText, &r.KeyFindings,
		&actionsRaw, &iocsRaw, &r.ModelUsed, &r.ProcessingMS, &r.RequiresHumanReview, &r.ResultVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("store: find triage result: %w", err)
	}
	if err := json.Unmarshal(actionsRaw, &r.RecommendedActions); err != nil {
		return nil, fmt.Errorf("store: unmarshal recommended actions: %w", err)
	}
	if err := json.Unmarshal(iocsRaw, &r.IOCsExtracted); err != nil {
		return nil, fmt.Errorf("store: unmarshal extracted iocs: %w", err)
	}
	return &r, nil
}

// FindSince returns up to limit triage results updated at or after
// since, oldest first. Feeds the downstream CEF/STIX export surface
// (pkg/exporter), which reads finished triage rows instead of raw IOCs.
func (s *TriageStore) FindSince(ctx context.Context, since time.Time, limit int) ([]models.TriageResult, error) {
	query := `
		SELECT alert_id, risk_score, risk_level, confidence, analysis_text, key_findings,
			recommended_actions, iocs_extracted, model_used, processing_ms,
			requires_human_review, result_version
		FROM triage_results WHERE updated_at >= $1 ORDER BY updated_at ASC LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("store: find triage results since: %w", err)
	}
	defer rows.Close()

	var out []models.TriageResult
	for rows.Next() {
		var r models.TriageResult
		var actionsRaw, iocsRaw []byte
		if err := rows.Scan(
			&r.AlertID, &r.RiskScore, &r.RiskLevel, &r.Confidence, &r.AnalysisText, &r.KeyFindings,
			&actionsRaw, &iocsRaw, &r.ModelUsed, &r.ProcessingMS, &r.RequiresHumanReview, &r.ResultVersion,
		); err != nil {
			return nil, fmt.Errorf("store: scan triage result: %w", err)
		}
		if err := json.Unmarshal(actionsRaw, &r.RecommendedActions); err != nil {
			return nil, fmt.Errorf("store: unmarshal recommended actions: %w", err)
		}
		if err := json.Unmarshal(iocsRaw, &r.IOCsExtracted); err != nil {
			return nil, fmt.Errorf("store: unmarshal extracted iocs: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate triage results: %w", err)
	}
	return out, nil
}
