package api

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeMessage writes a bare JSON string, the body shape used for
// not-found and delete confirmations.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, msg)
}

func (s *Server) writeInternalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if s.logger != nil {
		s.logger.Error(r.Context(), "request failed", "operation", op, "error", err)
	}
	writeMessage(w, http.StatusInternalServerError, "An internal error occurred.")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}
