package handlers

import (
	"context"
	"net/http"

	middleware "github.com/markdave123-py/studybuddy/internal/api/middlewares"
	"github.com/markdave123-py/studybuddy/internal/core/apperr"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/core/progress"
	"github.com/markdave123-py/studybuddy/internal/models"
)

type Progress interface {
	RecordStudyActivity(ctx context.Context, userID string) (progress.Streak, error)
	LogQuizResult(ctx context.Context, userID, quizID string, score float64) (*models.ProgressRecord, error)
	Dashboard(ctx context.Context, userID string) (models.Dashboard, error)
}

type ProgressHandler struct {
	progress Progress
	log      *logger.Logger
}

func NewProgressHandler(p Progress, log *logger.Logger) *ProgressHandler {
	return &ProgressHandler{progress: p, log: log}
}

type logQuizRequest struct {
	QuizID string   `json:"quizId"`
	Score  *float64 `json:"score"`
}

func (h *ProgressHandler) LogQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, nil, "unauthorized")
		return
	}
	var req logQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.Score == nil {
		writeError(w, r, h.log, apperr.Input("score is required"))
		return
	}
	rec, err := h.progress.LogQuizResult(r.Context(), userID, req.QuizID, *req.Score)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rec, "quiz result logged")
}

func (h *ProgressHandler) UpdateStreak(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, nil, "unauthorized")
		return
	}
	streak, err := h.progress.RecordStudyActivity(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, streak, "study streak updated")
}

func (h *ProgressHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, nil, "unauthorized")
		return
	}
	d, err := h.progress.Dashboard(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d, "dashboard retrieved")
}
