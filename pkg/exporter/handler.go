package exporter

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hive-corporation/sentryline/pkg/httpx"
)

// Handler exposes the CEF/STIX feeds as optional downstream HTTP
// endpoints, outside the pipeline's primary message-driven path.
type Handler struct {
	cef  *CEFExporter
	stix *STIXExporter
}

func NewHandler(store TriageSource) *Handler {
	return &Handler{cef: NewCEFExporter(store), stix: NewSTIXExporter(store)}
}

func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/v1/export").Subrouter()
	api.HandleFunc("/cef", h.CEF).Methods(http.MethodGet)
	api.HandleFunc("/stix", h.STIX).Methods(http.MethodGet)
}

func (h *Handler) CEF(w http.ResponseWriter, r *http.Request) {
	since := parseSince(r)
	body, err := h.cef.Export(r.Context(), since)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "CEF export failed")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (h *Handler) STIX(w http.ResponseWriter, r *http.Request) {
	since := parseSince(r)
	body, err := h.stix.Export(r.Context(), since)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "STIX export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func parseSince(r *http.Request) time.Time {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
