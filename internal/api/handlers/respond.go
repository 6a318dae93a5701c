package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/markdave123-py/studybuddy/internal/core/apperr"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// envelope is the shape of every API response.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, data any, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		StatusCode: status,
		Data:       data,
		Message:    msg,
		Success:    status < 400,
	})
}

// writeError maps err to its HTTP status. Only the safe message reaches the
// client; the full error is logged.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status := apperr.HTTPStatus(err)
	kv := []interface{}{"path", r.URL.Path, "status", status, "request_id", chimw.GetReqID(r.Context()), "error", err}
	if status >= 500 {
		log.Error("request failed", kv...)
	} else {
		log.Debug("request rejected", kv...)
	}
	writeJSON(w, status, nil, apperr.SafeMessage(err))
}

// decodeJSON reads a single JSON object from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Input("request body is empty")
		}
		return apperr.Input("invalid request body")
	}
	return nil
}
