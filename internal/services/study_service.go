package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/studybuddy/internal/core"
	"github.com/markdave123-py/studybuddy/internal/core/apperr"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/models"
)

// ArtifactGenerator produces validated study artifacts from text.
type ArtifactGenerator interface {
	Summarize(ctx context.Context, text string) (string, error)
	Quiz(ctx context.Context, text string) ([]models.QuizQuestion, error)
	Flashcards(ctx context.Context, text string) ([]models.Flashcard, error)
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

type studyStore interface {
	core.MaterialStore
	core.ArtifactStore
}

// StudyService generates artifacts for a user's materials and stores them.
// Every call creates a new artifact; nothing is deduplicated.
type StudyService struct {
	db  studyStore
	gen ArtifactGenerator
	log *logger.Logger
}

func NewStudyService(db studyStore, gen ArtifactGenerator, log *logger.Logger) *StudyService {
	if log == nil {
		log = logger.Nop()
	}
	return &StudyService{db: db, gen: gen, log: log}
}

func (s *StudyService) Summarize(ctx context.Context, userID, materialID string) (*models.TextArtifact, error) {
	m, err := ownedMaterial(ctx, s.db, userID, materialID)
	if err != nil {
		return nil, err
	}
	summary, err := s.gen.Summarize(ctx, m.ExtractedText)
	if err != nil {
		return nil, err
	}
	a := &models.TextArtifact{
		ID:         uuid.NewString(),
		MaterialID: m.ID,
		Kind:       models.ArtifactSummary,
		Content:    summary,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.CreateTextArtifact(ctx, a); err != nil {
		return nil, apperr.Internal("could not save summary", err)
	}
	return a, nil
}

func (s *StudyService) GenerateQuiz(ctx context.Context, userID, materialID string) (*models.Quiz, error) {
	m, err := ownedMaterial(ctx, s.db, userID, materialID)
	if err != nil {
		return nil, err
	}
	questions, err := s.gen.Quiz(ctx, m.ExtractedText)
	if err != nil {
		return nil, err
	}
	q := &models.Quiz{
		ID:         uuid.NewString(),
		MaterialID: m.ID,
		Title:      "Quiz for " + m.FileName,
		Questions:  questions,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.CreateQuiz(ctx, q); err != nil {
		return nil, apperr.Internal("could not save quiz", err)
	}
	s.log.Info("quiz generated", "quiz_id", q.ID, "material_id", m.ID)
	return q, nil
}

func (s *StudyService) GenerateFlashcards(ctx context.Context, userID, materialID string) (*models.FlashcardSet, error) {
	m, err := ownedMaterial(ctx, s.db, userID, materialID)
	if err != nil {
		return nil, err
	}
	cards, err := s.gen.Flashcards(ctx, m.ExtractedText)
	if err != nil {
		return nil, err
	}
	fs := &models.FlashcardSet{
		ID:         uuid.NewString(),
		MaterialID: m.ID,
		Cards:      cards,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.CreateFlashcardSet(ctx, fs); err != nil {
		return nil, apperr.Internal("could not save flashcards", err)
	}
	return fs, nil
}

// TranslateMaterial translates the material's text and stores the result.
func (s *StudyService) TranslateMaterial(ctx context.Context, userID, materialID, targetLanguage string) (*models.TextArtifact, error) {
	target, err := normalizeTarget(targetLanguage)
	if err != nil {
		return nil, err
	}
	m, err := ownedMaterial(ctx, s.db, userID, materialID)
	if err != nil {
		return nil, err
	}
	out, err := s.gen.Translate(ctx, m.ExtractedText, target)
	if err != nil {
		return nil, err
	}
	a := &models.TextArtifact{
		ID:             uuid.NewString(),
		MaterialID:     m.ID,
		Kind:           models.ArtifactTranslation,
		TargetLanguage: target,
		Content:        out,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.db.CreateTextArtifact(ctx, a); err != nil {
		return nil, apperr.Internal("could not save translation", err)
	}
	return a, nil
}

// TranslateText translates free text. There is no source material, so the
// result is returned but not stored.
func (s *StudyService) TranslateText(ctx context.Context, text, targetLanguage string) (string, error) {
	target, err := normalizeTarget(targetLanguage)
	if err != nil {
		return "", err
	}
	return s.gen.Translate(ctx, text, target)
}

func (s *StudyService) ListQuizzes(ctx context.Context, userID, materialID string) ([]models.Quiz, error) {
	m, err := ownedMaterial(ctx, s.db, userID, materialID)
	if err != nil {
		return nil, err
	}
	out, err := s.db.ListQuizzesByMaterial(ctx, m.ID)
	if err != nil {
		return nil, apperr.Internal("could not list quizzes", err)
	}
	return out, nil
}

func (s *StudyService) ListFlashcards(ctx context.Context, userID, materialID string) ([]models.FlashcardSet, error) {
	m, err := ownedMaterial(ctx, s.db, userID, materialID)
	if err != nil {
		return nil, err
	}
	out, err := s.db.ListFlashcardSetsByMaterial(ctx, m.ID)
	if err != nil {
		return nil, apperr.Internal("could not list flashcards", err)
	}
	return out, nil
}

func normalizeTarget(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "", apperr.Input("targetLanguage is required")
	}
	if len(lang) > 64 {
		return "", apperr.Input("targetLanguage is too long")
	}
	return lang, nil
}
