package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/gethelp/internal/apperr"
	"github.com/nikhilbhutani/gethelp/internal/tasks"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP. fallback names the operation
// for errors outside it.
func writeError(w http.ResponseWriter, r *http.Request, fallback string, err error) {
	var ve *apperr.ValidationError
	var mbe *http.MaxBytesError

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Message})
	case errors.As(err, &mbe):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "request body too large"})
	case errors.Is(err, tasks.ErrUnknownTaskType):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Unknown task type", Message: err.Error()})
	default:
		title := fallback
		if ue, ok := apperr.AsUpstream(err); ok {
			title = ue.Stage.Label() + " failed"
		}
		slog.Error(fallback, "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: title, Message: err.Error()})
	}
}

// decodeJSON reads a JSON body. An empty body decodes to the zero value.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return apperr.Validation("body", "invalid request body: %v", err)
	}
	return nil
}
