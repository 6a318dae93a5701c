package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/studybuddy/internal/api/middlewares"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/models"
)

type Study interface {
	Summarize(ctx context.Context, userID, materialID string) (*models.TextArtifact, error)
	GenerateQuiz(ctx context.Context, userID, materialID string) (*models.Quiz, error)
	GenerateFlashcards(ctx context.Context, userID, materialID string) (*models.FlashcardSet, error)
	TranslateMaterial(ctx context.Context, userID, materialID, targetLanguage string) (*models.TextArtifact, error)
	TranslateText(ctx context.Context, text, targetLanguage string) (string, error)
	ListQuizzes(ctx context.Context, userID, materialID string) ([]models.Quiz, error)
	ListFlashcards(ctx context.Context, userID, materialID string) ([]models.FlashcardSet, error)
}

type GenerationHandler struct {
	study Study
	log   *logger.Logger
}

func NewGenerationHandler(study Study, log *logger.Logger) *GenerationHandler {
	return &GenerationHandler{study: study, log: log}
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

// materialCall runs fn for the authenticated user and the {materialId} path param.
func (h *GenerationHandler) materialCall(w http.ResponseWriter, r *http.Request, status int, msg string,
	fn func(ctx context.Context, userID, materialID string) (any, error)) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, nil, "unauthorized")
		return
	}
	out, err := fn(r.Context(), userID, chi.URLParam(r, "materialId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, status, out, msg)
}

func (h *GenerationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	h.materialCall(w, r, http.StatusCreated, "summary generated", func(ctx context.Context, uid, mid string) (any, error) {
		return h.study.Summarize(ctx, uid, mid)
	})
}

func (h *GenerationHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	h.materialCall(w, r, http.StatusCreated, "quiz generated", func(ctx context.Context, uid, mid string) (any, error) {
		return h.study.GenerateQuiz(ctx, uid, mid)
	})
}

func (h *GenerationHandler) Flashcards(w http.ResponseWriter, r *http.Request) {
	h.materialCall(w, r, http.StatusCreated, "flashcards generated", func(ctx context.Context, uid, mid string) (any, error) {
		return h.study.GenerateFlashcards(ctx, uid, mid)
	})
}

func (h *GenerationHandler) TranslateMaterial(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.materialCall(w, r, http.StatusCreated, "translation generated", func(ctx context.Context, uid, mid string) (any, error) {
		return h.study.TranslateMaterial(ctx, uid, mid, req.TargetLanguage)
	})
}

// TranslateText translates free text without storing anything.
func (h *GenerationHandler) TranslateText(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	out, err := h.study.TranslateText(r.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"translatedText": out}, "translation generated")
}

func (h *GenerationHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	h.materialCall(w, r, http.StatusOK, "quizzes retrieved", func(ctx context.Context, uid, mid string) (any, error) {
		return h.study.ListQuizzes(ctx, uid, mid)
	})
}

func (h *GenerationHandler) ListFlashcards(w http.ResponseWriter, r *http.Request) {
	h.materialCall(w, r, http.StatusOK, "flashcards retrieved", func(ctx context.Context, uid, mid string) (any, error) {
		return h.study.ListFlashcards(ctx, uid, mid)
	})
}
