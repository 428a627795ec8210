package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/sql2xlsx/internal/core"
	"github.com/JonMunkholm/sql2xlsx/internal/logging"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps a conversion error to its HTTP status. Only validation
// failures are the client's fault.
func statusFor(err error) int {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes it as {"error": "..."} with the status
// statusFor picks.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, r, status, err.Error())
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Error: message})
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
