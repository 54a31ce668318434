// Package httpx holds the shared JSON response envelopes used by every
// stage's HTTP surface, generalized from the teacher's
// internal/adapter/handler writeJSON/writeError helpers.
package httpx

import (
	"encoding/json"
	"log"
	"net/http"
)

// Envelope wraps a successful response body, §6.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Meta    any  `json:"meta,omitempty"`
}

// ErrorBody wraps a failed response body, §6/§7.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes status with body as the top-level JSON document,
// logging (not panicking) on an encode failure, as the teacher does.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("httpx: error encoding JSON response: %v", err)
	}
}

// WriteData writes a 2xx {success, data} envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
}

// WriteError writes a {code, message} error envelope.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorBody{Code: code, Message: message})
}

// WriteErrorDetails is WriteError with a details payload attached, used
// for validation failures that enumerate per-field problems (§4.1).
func WriteErrorDetails(w http.ResponseWriter, status int, code, message string, details any) {
	WriteJSON(w, status, ErrorBody{Code: code, Message: message, Details: details})
}
