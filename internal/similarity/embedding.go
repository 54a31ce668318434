// Package similarity implements the Similarity Search leaf service
// (§4.7): an embedding index of past alerts answering top-K queries.
package similarity

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// embeddingDims matches §4.7's "384-dim sentence-transformer-class
// embedding" language.
const embeddingDims = 384

// Embedder is the narrow capability §4.7 indexing/querying need: turn
// alert text into a fixed-length vector. A real deployment swaps this
// for a hosted sentence-transformer call; this one is a deterministic,
// SHA-256-seeded stand-in so the service is runnable without a model
// server, mirroring contextcollector/providers.GeoIPProvider's
// derive-from-input approach.
type Embedder interface {
	Embed(text string) []float32
}

type hashEmbedder struct{}

func NewHashEmbedder() Embedder { return hashEmbedder{} }

// Embed hashes each whitespace-separated token of the lower-cased text
// into one of 384 buckets (feature hashing) and counts it there. Cosine
// similarity over these vectors rewards shared tokens (words, IOC
// values, vendor names) between canonical projections, which is the
// property §4.7 similarity search actually needs from a stand-in embedder.
func (hashEmbedder) Embed(text string) []float32 {
	norm := strings.ToLower(strings.TrimSpace(text))
	vec := make([]float32, embeddingDims)
	for _, tok := range strings.Fields(norm) {
		sum := sha256.Sum256([]byte(tok))
		vec[binary.BigEndian.Uint32(sum[:4])%embeddingDims]++
	}
	return normalize(vec)
}

func normalize(vec []float32) []float32 {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return vec
	}
	norm := float32(1.0 / math.Sqrt(sumSq))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v * norm
	}
	return out
}

// ProjectAlert builds the canonical text projection §4.7 indexing
// describes, from alert_type, severity and description joined by
// spaces. Observables (IPs, hashes, URLs) are not part of the projection.
func ProjectAlert(alertType models.AlertType, severity models.Severity, description string) string {
	var b strings.Builder
	b.WriteString(string(alertType))
	b.WriteByte(' ')
	b.WriteString(string(severity))
	b.WriteByte(' ')
	b.WriteString(description)
	return b.String()
}
