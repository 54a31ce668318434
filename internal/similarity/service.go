package similarity

import (
	"context"
	"time"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// Service implements the §4.7 operations against an Embedder and a
// VectorStore: index (embed-then-upsert), search (embed-then-query),
// delete, and stats.
type Service struct {
	embedder Embedder
	store    VectorStore
}

func NewService(embedder Embedder, store VectorStore) *Service {
	return &Service{embedder: embedder, store: store}
}

// Index upserts an alert's embedding. If the caller already supplied
// one it is used as-is (precomputed-embedding callers); otherwise it
// is derived here from the canonical text projection of alert_type,
// severity, and description, per §4.7 indexing.
func (s *Service) Index(ctx context.Context, entry models.SimilarityIndexEntry) error {
	if len(entry.Embedding) == 0 {
		text := ProjectAlert(entry.AlertType, entry.Severity, entry.Description)
		entry.Embedding = s.embedder.Embed(text)
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UTC().Unix()
	}
	return s.store.Upsert(ctx, entry)
}

// SearchQuery is the service-level request shape for Search, ahead of
// the HTTP decode.
type SearchQuery struct {
	AlertType     models.AlertType
	Severity      models.Severity
	Description   string
	TopK          int
	Filter        Filter
	MinSimilarity float64
}

func (s *Service) Search(ctx context.Context, q SearchQuery) ([]models.SimilarityHit, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = 5
	}
	text := ProjectAlert(q.AlertType, q.Severity, q.Description)
	embedding := s.embedder.Embed(text)
	return s.store.Search(ctx, embedding, topK, q.MinSimilarity, q.Filter)
}

func (s *Service) Delete(ctx context.Context, alertID string) error {
	return s.store.Delete(ctx, alertID)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}
