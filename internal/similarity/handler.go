package similarity

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hive-corporation/sentryline/pkg/httpx"
	"github.com/hive-corporation/sentryline/pkg/models"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/search", h.Search).Methods(http.MethodPost)
	api.HandleFunc("/index", h.Index).Methods(http.MethodPost)
	api.HandleFunc("/index/{id}", h.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
}

type searchRequest struct {
	AlertType     models.AlertType   `json:"alert_type"`
	Severity      models.Severity    `json:"severity"`
	RiskLevel     models.ThreatLevel `json:"risk_level"`
	Description   string             `json:"description"`
	TopK          int                `json:"top_k"`
	MinSimilarity float64            `json:"min_similarity"`
	Since         *time.Time         `json:"since,omitempty"`
	Until         *time.Time         `json:"until,omitempty"`
}

// Search handles POST /api/v1/search: embed the query alert and return
// top-K similar past alerts, filtered by metadata and threshold (§4.7).
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "malformed request body")
		return
	}

	filter := Filter{AlertType: req.AlertType, Severity: req.Severity, RiskLevel: req.RiskLevel}
	if req.Since != nil {
		filter.Since = *req.Since
	}
	if req.Until != nil {
		filter.Until = *req.Until
	}

	hits, err := h.svc.Search(r.Context(), SearchQuery{
		AlertType:     req.AlertType,
		Severity:      req.Severity,
		Description:   req.Description,
		TopK:          req.TopK,
		Filter:        filter,
		MinSimilarity: req.MinSimilarity,
	})
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "search failed")
		return
	}
	if hits == nil {
		hits = []models.SimilarityHit{}
	}
	httpx.WriteData(w, http.StatusOK, map[string]any{"hits": hits})
}

// Index handles POST /api/v1/index: upsert an alert's similarity
// entry, embedding it server-side if the caller did not precompute one.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	var entry models.SimilarityIndexEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "malformed request body")
		return
	}
	if entry.AlertID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "alert_id is required")
		return
	}

	if err := h.svc.Index(r.Context(), entry); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "index failed")
		return
	}
	httpx.WriteData(w, http.StatusOK, map[string]any{"alert_id": entry.AlertID, "indexed": true})
}

// Delete handles DELETE /api/v1/index/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.Delete(r.Context(), id); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "delete failed")
		return
	}
	httpx.WriteData(w, http.StatusOK, map[string]any{"alert_id": id, "deleted": true})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "stats failed")
		return
	}
	httpx.WriteData(w, http.StatusOK, stats)
}

// Health reports vector store reachability (§6) rather than a static
// reply, degrading to 503 when the backing store can't be reached.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	checks := map[string]string{"vector_store": "ok"}

	if _, err := h.svc.Stats(r.Context()); err != nil {
		checks["vector_store"] = "down"
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	httpx.WriteData(w, code, map[string]any{"status": status, "checks": checks})
}
