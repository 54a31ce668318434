package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hive-corporation/sentryline/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ThreatIntelStore persists one row per (ioc, ioc_type), §3/§4.4,
// batched the way the teacher's SaveBatch batches IOC inserts.
type ThreatIntelStore struct {
	db *pgxpool.Pool
}

func NewThreatIntelStore(db *pgxpool.Pool) *ThreatIntelStore {
	return &ThreatIntelStore{db: db}
}

// SaveBatch upserts a batch of threat-intel records in one round trip.
func (s *ThreatIntelStore) SaveBatch(ctx context.Context, records []models.ThreatIntelRecord) error {
	batch := &pgx.Batch{}

	query := `
		INSERT INTO threat_intel (ioc, ioc_type, threat_level, threat_score, sources_queried, sources_hit, raw_vendor_data, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ioc, ioc_type) DO UPDATE SET
			threat_level = EXCLUDED.threat_level, threat_score = EXCLUDED.threat_score,
			sources_queried = EXCLUDED.sources_queried, sources_hit = EXCLUDED.sources_hit,
			raw_vendor_data = EXCLUDED.raw_vendor_data, last_seen = EXCLUDED.last_seen
	`

	for _, r := range records {
		raw, err := json.Marshal(r.RawVendorData)
		if err != nil {
			return fmt.Errorf("store: marshal vendor data: %w", err)
		}
		batch.Queue(query, r.IOC, r.IOCType, r.ThreatLevel, r.ThreatScore, r.SourcesQueried, r.SourcesHit, raw, r.LastSeen)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("store: exec threat_intel batch: %w", err)
		}
	}
	return nil
}

// FindByIOC returns the cached threat-intel record for one indicator,
// used to avoid re-querying all sources within the TI cache TTL.
func (s *ThreatIntelStore) FindByIOC(ctx context.Context, iocType, value string) (*models.ThreatIntelRecord, error) {
	query := `
		SELECT ioc, ioc_type, threat_level, threat_score, sources_queried, sources_hit, raw_vendor_data, last_seen
		FROM threat_intel WHERE ioc = $1 AND ioc_type = $2
	`
	var rec models.ThreatIntelRecord
	var raw []byte
	err := s.db.QueryRow(ctx, query, value, iocType).Scan(
		&rec.IOC, &rec.IOCType, &rec.ThreatLevel, &rec.ThreatScore,
		&rec.SourcesQueried, &rec.SourcesHit, &raw, &rec.LastSeen,
	)
	if err != nil {
		return nil, fmt.Errorf("store: find threat intel: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.RawVendorData); err != nil {
			return nil, fmt.Errorf("store: unmarshal vendor data: %w", err)
		}
	}
	return &rec, nil
}
