package services

import (
	"context"
	"strings"

	"github.com/markdave123-py/studybuddy/internal/core"
	"github.com/markdave123-py/studybuddy/internal/core/apperr"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/models"
)

const tutorTopK = 5

// Answerer answers a question from the given context only.
type Answerer interface {
	Answer(ctx context.Context, contextText, question string) (string, error)
}

type tutorStore interface {
	core.MaterialStore
	core.ChunkStore
}

// TutorService answers questions about one material. When the material's
// index is ready the closest chunks are used as context, otherwise the full
// extracted text is.
type TutorService struct {
	db       tutorStore
	embedder core.EmbeddingProvider
	gen      Answerer
	log      *logger.Logger
}

// NewTutorService builds the tutor. embedder may be nil.
func NewTutorService(db tutorStore, embedder core.EmbeddingProvider, gen Answerer, log *logger.Logger) *TutorService {
	if log == nil {
		log = logger.Nop()
	}
	return &TutorService{db: db, embedder: embedder, gen: gen, log: log}
}

func (s *TutorService) Ask(ctx context.Context, userID, materialID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperr.Input("question is required")
	}
	m, err := ownedMaterial(ctx, s.db, userID, materialID)
	if err != nil {
		return "", err
	}
	return s.gen.Answer(ctx, s.contextFor(ctx, m, question), question)
}

// contextFor never fails: retrieval problems fall back to the full text.
func (s *TutorService) contextFor(ctx context.Context, m *models.StudyMaterial, question string) string {
	if s.embedder == nil || m.IndexStatus != models.IndexReady {
		return m.ExtractedText
	}
	vecs, err := s.embedder.EmbedTexts(ctx, []string{question})
	if err != nil || len(vecs) != 1 {
		s.log.Warn("question embedding failed, using full text", "material_id", m.ID, "error", err)
		return m.ExtractedText
	}
	chunks, err := s.db.SearchMaterialChunks(ctx, m.ID, vecs[0], tutorTopK)
	if err != nil || len(chunks) == 0 {
		s.log.Warn("chunk search failed, using full text", "material_id", m.ID, "error", err)
		return m.ExtractedText
	}
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n\n")
}
