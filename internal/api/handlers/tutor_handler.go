package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/studybuddy/internal/api/middlewares"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
)

type Tutor interface {
	Ask(ctx context.Context, userID, materialID, question string) (string, error)
}

type TutorHandler struct {
	tutor Tutor
	log   *logger.Logger
}

func NewTutorHandler(tutor Tutor, log *logger.Logger) *TutorHandler {
	return &TutorHandler{tutor: tutor, log: log}
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *TutorHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, nil, "unauthorized")
		return
	}
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	answer, err := h.tutor.Ask(r.Context(), userID, chi.URLParam(r, "materialId"), req.Question)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer}, "answer generated")
}
