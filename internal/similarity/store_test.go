package similarity

import (
	"context"
	"testing"
	"time"

	"github.com/hive-corporation/sentryline/pkg/models"
)

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	v := []float32{0.6, 0.8, 0}
	if sim := cosineSimilarity(v, v); sim < 0.999 || sim > 1.001 {
		t.Errorf("cosineSimilarity(v, v) = %v, want ~1.0", sim)
	}
}

func TestCosineSimilarityOrthogonalIsZero(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if sim := cosineSimilarity(a, b); sim != 0 {
		t.Errorf("cosineSimilarity(orthogonal) = %v, want 0", sim)
	}
}

func TestCosineSimilarityMismatchedLengthIsZero(t *testing.T) {
	if sim := cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); sim != 0 {
		t.Errorf("cosineSimilarity(mismatched) = %v, want 0", sim)
	}
}

func TestFilterMatches(t *testing.T) {
	entry := models.SimilarityIndexEntry{
		AlertType: models.AlertTypeMalware,
		Severity:  models.SeverityHigh,
		RiskLevel: models.ThreatLevel("high"),
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix(),
	}

	tests := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty filter matches anything", Filter{}, true},
		{"matching alert type", Filter{AlertType: models.AlertTypeMalware}, true},
		{"mismatching alert type", Filter{AlertType: models.AlertTypePhishing}, false},
		{"matching severity", Filter{Severity: models.SeverityHigh}, true},
		{"mismatching severity", Filter{Severity: models.SeverityLow}, false},
		{"since before entry", Filter{Since: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)}, true},
		{"since after entry", Filter{Since: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}, false},
		{"until after entry", Filter{Until: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}, true},
		{"until before entry", Filter{Until: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.matches(entry); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInMemoryStoreSearchFiltersByThreshold(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	query := []float32{1, 0, 0}
	closeMatch := []float32{0.99, 0.1, 0}
	farMatch := []float32{0, 1, 0}

	_ = store.Upsert(ctx, models.SimilarityIndexEntry{AlertID: "close", Embedding: closeMatch, AlertType: models.AlertTypeMalware})
	_ = store.Upsert(ctx, models.SimilarityIndexEntry{AlertID: "far", Embedding: farMatch, AlertType: models.AlertTypeMalware})

	hits, err := store.Search(ctx, query, 5, 0.7, Filter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].AlertID != "close" {
		t.Errorf("Search() = %+v, want only the close match above threshold", hits)
	}
}

func TestInMemoryStoreSearchRespectsTopK(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	query := []float32{1, 0}

	for i := 0; i < 5; i++ {
		_ = store.Upsert(ctx, models.SimilarityIndexEntry{AlertID: string(rune('a' + i)), Embedding: []float32{1, 0}})
	}

	hits, err := store.Search(ctx, query, 2, 0.5, Filter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("len(hits) = %d, want 2 (topK)", len(hits))
	}
}

func TestInMemoryStoreDeleteRemovesEntry(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	_ = store.Upsert(ctx, models.SimilarityIndexEntry{AlertID: "a", Embedding: []float32{1, 0}})

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	hits, err := store.Search(ctx, []float32{1, 0}, 5, 0.5, Filter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Search() after delete = %+v, want empty", hits)
	}
}

func TestInMemoryStoreStatsCountsEntries(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	_ = store.Upsert(ctx, models.SimilarityIndexEntry{AlertID: "a", Timestamp: 100})
	_ = store.Upsert(ctx, models.SimilarityIndexEntry{AlertID: "b", Timestamp: 200})

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalEntries != 2 {
		t.Errorf("TotalEntries = %d, want 2", stats.TotalEntries)
	}
}
