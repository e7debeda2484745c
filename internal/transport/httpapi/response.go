package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sandevgo/memochat/pkg/log"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Status is already on the wire, nothing left to do but log.
		log.FromCtx(r.Context()).Error().Err(err).Msg("failed to encode JSON response")
	}
}

// ErrorResponse is the structured error body for client-facing failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, ErrorResponse{Error: msg})
}
