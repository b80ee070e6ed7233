// Package response writes every API answer in the same JSON envelope.
package response

import (
	"encoding/json"
	"net/http"
	"time"
)

// JSONResponse is the common response envelope for all API endpoints.
// Exactly one of Data and Error is set.
type JSONResponse struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
	Timestamp string     `json:"timestamp"`
}

// ErrorBody carries the HTTP status and a client-facing message.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RespondJSON writes payload in a successful envelope.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, JSONResponse{
		Success:   true,
		Data:      payload,
		Timestamp: timestamp(),
	})
}

// RespondError writes msg in a failed envelope.
func RespondError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, JSONResponse{
		Error:     &ErrorBody{Code: status, Message: msg},
		Timestamp: timestamp(),
	})
}

// RespondEmpty writes a status without a body, e.g. 204 for gateway
// callbacks that expect no content.
func RespondEmpty(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
