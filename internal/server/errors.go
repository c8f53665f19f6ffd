package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Anika-Jha/Eterna/internal/artifact"
	"github.com/Anika-Jha/Eterna/internal/blob"
)

type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg, field string) {
	writeJSON(w, status, errorBody{Message: msg, Field: field})
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *artifact.FieldError
	switch {
	case errors.As(err, &fe):
		writeMessage(w, http.StatusBadRequest, fe.Message, fe.Field)
	case errors.Is(err, artifact.ErrInvalidAction):
		writeMessage(w, http.StatusBadRequest, "action must be one of vote, stake, interact", "action")
	case errors.Is(err, artifact.ErrInvalidReaction):
		writeMessage(w, http.StatusBadRequest, "Invalid reaction", "reaction")
	case errors.Is(err, artifact.ErrNotFound), errors.Is(err, blob.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFoundMessage(r), "")
	case errors.Is(err, artifact.ErrStorageUnavailable):
		s.logger.Warn("storage unavailable", "path", r.URL.Path, "err", err)
		writeMessage(w, http.StatusServiceUnavailable, "Storage unavailable, try again", "")
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func notFoundMessage(r *http.Request) string {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/comments/"):
		return "Comment not found"
	case strings.HasPrefix(r.URL.Path, "/uploads/"):
		return "Upload not found"
	default:
		return "Artifact not found"
	}
}
