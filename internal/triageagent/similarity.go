package triageagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// SimilarityClient is the narrow surface S5 needs from the similarity
// search leaf service (§4.7): a synchronous top-K query with a short
// timeout, and an async indexing call once the result is final.
type SimilarityClient interface {
	Search(ctx context.Context, a models.Alert, topK int) ([]models.SimilarityHit, error)
	IndexAsync(entry models.SimilarityIndexEntry)
}

// HTTPSimilarityClient calls the similarity-search leaf service over
// HTTP. Per the resolved Open Question (§9), Search is called
// synchronously from S5 with a short timeout (default 500ms); on
// timeout S5 proceeds without similar-history input and IndexAsync
// still fires in the background so the alert is searchable later.
type HTTPSimilarityClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSimilarityClient(baseURL string, timeout time.Duration) *HTTPSimilarityClient {
	return &HTTPSimilarityClient{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

type searchRequest struct {
	AlertType models.AlertType `json:"alert_type"`
	Severity  models.Severity  `json:"severity"`
	Description string         `json:"description"`
	TopK      int              `json:"top_k"`
}

type searchResponse struct {
	Data struct {
		Hits []models.SimilarityHit `json:"hits"`
	} `json:"data"`
}

func (c *HTTPSimilarityClient) Search(ctx context.Context, a models.Alert, topK int) ([]models.SimilarityHit, error) {
	body, err := json.Marshal(searchRequest{AlertType: a.AlertType, Severity: a.Severity, Description: a.Description, TopK: topK})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("similarity: search: %w", err)
	}
	defer resp.Body.Close()

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("similarity: decode search response: %w", err)
	}
	return out.Data.Hits, nil
}

// IndexAsync fires the index call in its own goroutine with a fresh
// background-derived context: the caller's request context may already
// be gone by the time this runs, and indexing is best-effort.
func (c *HTTPSimilarityClient) IndexAsync(entry models.SimilarityIndexEntry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		body, err := json.Marshal(entry)
		if err != nil {
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/index", bytes.NewReader(body))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.client.Do(req)
		if err != nil {
			return
		}
		resp.Body.Close()
	}()
}
