package similarity

import (
	"strings"
	"testing"

	"github.com/hive-corporation/sentryline/pkg/models"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder()
	a := e.Embed("malware high suspicious process spawning from winword.exe")
	b := e.Embed("malware high suspicious process spawning from winword.exe")

	if len(a) != embeddingDims || len(b) != embeddingDims {
		t.Fatalf("len(embedding) = %d, want %d", len(a), embeddingDims)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Embed() not deterministic at index %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestHashEmbedderSimilarTextMoreSimilarThanUnrelated(t *testing.T) {
	e := NewHashEmbedder()
	base := e.Embed("malware high c2 beacon to known bad domain evil.example.com")
	similar := e.Embed("malware high c2 beacon to known bad domain evil.example.com seen again")
	unrelated := e.Embed("policy_violation low employee accessed unauthorized wiki page")

	simScore := cosineSimilarity(base, similar)
	unrelatedScore := cosineSimilarity(base, unrelated)

	if simScore <= unrelatedScore {
		t.Errorf("expected near-duplicate text to score higher: similar=%v unrelated=%v", simScore, unrelatedScore)
	}
}

func TestProjectAlertIncludesAllFields(t *testing.T) {
	text := ProjectAlert(models.AlertTypeRansomware, models.SeverityCritical, "mass file encryption detected on file server")
	for _, want := range []string{"ransomware", "critical", "mass file encryption detected on file server"} {
		if !strings.Contains(text, want) {
			t.Errorf("ProjectAlert() = %q, want it to contain %q", text, want)
		}
	}
}
