package llmrouter

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/hive-corporation/sentryline/pkg/httpx"
)

type Handler struct {
	svc    *Service
	apiKey string
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, apiKey: os.Getenv("LLM_PROVIDER_API_KEY")}
}

func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/route", h.Route).Methods(http.MethodPost)
	api.HandleFunc("/complete", h.Complete).Methods(http.MethodPost)
	api.HandleFunc("/models", h.Models).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
}

type routeRequest struct {
	Task       string `json:"task"`
	Complexity string `json:"complexity"`
}

func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "malformed request body")
		return
	}

	model, err := h.svc.Select(req.Task, req.Complexity)
	if err != nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "no_model_available", err.Error())
		return
	}
	httpx.WriteData(w, http.StatusOK, model)
}

type completeRequest struct {
	ModelID      string `json:"model_id"`
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "malformed request body")
		return
	}

	var model Model
	found := false
	for _, m := range h.svc.registry {
		if m.ModelID == req.ModelID {
			model, found = m, true
			break
		}
	}
	if !found {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "unknown model_id")
		return
	}

	text, err := h.svc.Complete(r.Context(), model, h.apiKey, req.SystemPrompt, req.UserPrompt)
	if err != nil {
		httpx.WriteError(w, http.StatusBadGateway, "upstream_error", err.Error())
		return
	}
	httpx.WriteData(w, http.StatusOK, map[string]any{"text": text, "model_used": model.ModelID})
}

func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	httpx.WriteData(w, http.StatusOK, h.svc.registry)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.svc.mu.RLock()
	defer h.svc.mu.RUnlock()

	statuses := make(map[string]bool, len(h.svc.health))
	anyHealthy := false
	for id, hs := range h.svc.health {
		statuses[id] = hs.Healthy
		anyHealthy = anyHealthy || hs.Healthy
	}

	status, state := http.StatusOK, "healthy"
	if !anyHealthy {
		status, state = http.StatusServiceUnavailable, "unhealthy"
	}
	httpx.WriteJSON(w, status, httpx.Envelope{
		Success: anyHealthy,
		Data:    map[string]any{"status": state, "models": statuses},
	})
}
