package ingestor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	sentryerrors "github.com/hive-corporation/sentryline/pkg/errors"
	"github.com/hive-corporation/sentryline/pkg/httpx"
	"github.com/hive-corporation/sentryline/pkg/models"
)

const maxBatchSize = 100

// Pinger reports whether a dependency is reachable, used by Health to
// check the database and message queue instead of a static reply.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler exposes the §4.1 HTTP surface, in the teacher's RestHandler style.
type Handler struct {
	svc     *Service
	limiter *RateLimiter
	db      Pinger
	mq      Pinger
}

func NewHandler(svc *Service, limiter *RateLimiter, db, mq Pinger) *Handler {
	return &Handler{svc: svc, limiter: limiter, db: db, mq: mq}
}

func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/alerts", h.PostAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts/batch", h.PostBatch).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{id}", h.GetAlert).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
}

// Health reports liveness of the ingestor's own dependencies (§6):
// database and message queue, either of which being down degrades the
// response to 503 so an external health check can route around it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if err := h.db.Ping(r.Context()); err != nil {
		checks["database"] = "down"
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if err := h.mq.Ping(r.Context()); err != nil {
		checks["message_queue"] = "down"
		healthy = false
	} else {
		checks["message_queue"] = "ok"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	httpx.WriteData(w, code, map[string]any{
		"status":    status,
		"service":   "ingestor",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) PostAlert(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(clientIP(r)) {
		httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "per-client request budget exhausted")
		return
	}

	var a models.Alert
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "malformed request body")
		return
	}

	result, err := h.svc.Ingest(r.Context(), &a)
	switch {
	case err == nil:
		httpx.WriteData(w, http.StatusAccepted, result)
	case sentryerrors.Is(err, sentryerrors.ErrValidation):
		httpx.WriteErrorDetails(w, http.StatusBadRequest, "validation_error", "alert failed validation", result.Errors)
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to ingest alert")
	}
}

type batchRequest struct {
	BatchID string         `json:"batch_id,omitempty"`
	Alerts  []models.Alert `json:"alerts"`
}

// batchError reports one failed item, indexed into the request's
// alerts array so the caller can match it back to its input, §6/§8.
type batchError struct {
	Index   int                       `json:"index"`
	AlertID string                    `json:"alert_id,omitempty"`
	Code    string                    `json:"code"`
	Message string                    `json:"message"`
	Details []models.ValidationError `json:"details,omitempty"`
}

func (h *Handler) PostBatch(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(clientIP(r)) {
		httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "per-client request budget exhausted")
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "malformed request body")
		return
	}
	if len(req.Alerts) > maxBatchSize {
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "batch exceeds 100 items")
		return
	}

	ingestionIDs := make([]string, 0, len(req.Alerts))
	errs := make([]batchError, 0)
	successful, failed := 0, 0

	for i := range req.Alerts {
		result, err := h.svc.Ingest(r.Context(), &req.Alerts[i])
		switch {
		case err == nil:
			ingestionIDs = append(ingestionIDs, result.IngestionID)
			successful++
		case sentryerrors.Is(err, sentryerrors.ErrValidation):
			errs = append(errs, batchError{Index: i, Code: "validation_error", Message: "alert failed validation", Details: result.Errors})
			failed++
		default:
			errs = append(errs, batchError{Index: i, Code: "internal_error", Message: "failed to ingest alert"})
			failed++
		}
	}

	httpx.WriteData(w, http.StatusOK, map[string]any{
		"batch_id":      req.BatchID,
		"total":         len(req.Alerts),
		"successful":    successful,
		"failed":        failed,
		"ingestion_ids": ingestionIDs,
		"errors":        errs,
	})
}

func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	a, err := h.svc.Status(r.Context(), id)
	if sentryerrors.Is(err, sentryerrors.ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "alert not found")
		return
	}
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to load alert")
		return
	}
	httpx.WriteData(w, http.StatusOK, a)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
