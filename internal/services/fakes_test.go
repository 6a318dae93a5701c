package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/markdave123-py/studybuddy/internal/core"
	"github.com/markdave123-py/studybuddy/internal/core/apperr"
	"github.com/markdave123-py/studybuddy/internal/core/extraction"
	"github.com/markdave123-py/studybuddy/internal/core/progress"
	"github.com/markdave123-py/studybuddy/internal/models"
)

// memStore is an in-memory core.DbClient.
type memStore struct {
	mu         sync.Mutex
	users      map[string]*models.User
	materials  map[string]*models.StudyMaterial
	quizzes    map[string]*models.Quiz
	flashcards []models.FlashcardSet
	texts      []models.TextArtifact
	chunks     map[string][]models.MaterialChunk
	progress   map[string]*models.ProgressRecord

	createMaterialErr error
	searchCalls       int
}

var _ core.DbClient = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*models.User{},
		materials: map[string]*models.StudyMaterial{},
		quizzes:   map[string]*models.Quiz{},
		chunks:    map[string][]models.MaterialChunk{},
		progress:  map[string]*models.ProgressRecord{},
	}
}

func (s *memStore) Close() error { return nil }

func (s *memStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Email] = u
	return nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[email], nil
}

func (s *memStore) CreateMaterial(_ context.Context, m *models.StudyMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createMaterialErr != nil {
		return s.createMaterialErr
	}
	cp := *m
	s.materials[m.ID] = &cp
	return nil
}

func (s *memStore) GetMaterialByID(_ context.Context, id string) (*models.StudyMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.materials[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) ListMaterialsByUser(_ context.Context, userID string) ([]models.MaterialSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.MaterialSummary{}
	for _, m := range s.materials {
		if m.UserID == userID {
			out = append(out, models.MaterialSummary{ID: m.ID, FileName: m.FileName, Language: m.Language, IndexStatus: m.IndexStatus, CreatedAt: m.CreatedAt})
		}
	}
	return out, nil
}

func (s *memStore) UpdateIndexStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.materials[id]; ok {
		m.IndexStatus = status
	}
	return nil
}

func (s *memStore) DeleteMaterial(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.materials, id)
	delete(s.chunks, id)
	return nil
}

func (s *memStore) CreateQuiz(_ context.Context, q *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	s.quizzes[q.ID] = &cp
	return nil
}

func (s *memStore) GetQuizByID(_ context.Context, id string) (*models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quizzes[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (s *memStore) ListQuizzesByMaterial(_ context.Context, materialID string) ([]models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Quiz{}
	for _, q := range s.quizzes {
		if q.MaterialID == materialID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (s *memStore) CreateFlashcardSet(_ context.Context, fs *models.FlashcardSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashcards = append(s.flashcards, *fs)
	return nil
}

func (s *memStore) ListFlashcardSetsByMaterial(_ context.Context, materialID string) ([]models.FlashcardSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.FlashcardSet{}
	for _, fs := range s.flashcards {
		if fs.MaterialID == materialID {
			out = append(out, fs)
		}
	}
	return out, nil
}

func (s *memStore) CreateTextArtifact(_ context.Context, a *models.TextArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, *a)
	return nil
}

func (s *memStore) InsertMaterialChunks(_ context.Context, rows []models.MaterialChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.chunks[r.MaterialID] = append(s.chunks[r.MaterialID], r)
	}
	return nil
}

func (s *memStore) DeleteMaterialChunks(_ context.Context, materialID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, materialID)
	return nil
}

func (s *memStore) SearchMaterialChunks(_ context.Context, materialID string, _ []float32, limit int) ([]models.MaterialChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchCalls++
	rows := s.chunks[materialID]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return append([]models.MaterialChunk(nil), rows...), nil
}

func (s *memStore) GetProgress(_ context.Context, userID string) (*models.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.progress[userID]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (s *memStore) UpdateProgress(_ context.Context, userID string, fn func(*models.ProgressRecord) error) (*models.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.progress[userID]
	if !ok {
		cur = models.NewProgressRecord(userID)
		cur.CreatedAt = time.Now()
	}
	work := cloneRecord(cur)
	if err := fn(work); err != nil {
		return nil, err
	}
	s.progress[userID] = work
	return cloneRecord(work), nil
}

func cloneRecord(r *models.ProgressRecord) *models.ProgressRecord {
	cp := *r
	cp.QuizScores = append([]models.QuizScore{}, r.QuizScores...)
	cp.Heatmap = progress.Heatmap(r.Heatmap.Snapshot())
	if r.Streak.LastStudyDay != nil {
		d := *r.Streak.LastStudyDay
		cp.Streak.LastStudyDay = &d
	}
	return &cp
}

type memObjects struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newMemObjects() *memObjects { return &memObjects{objects: map[string][]byte{}} }

func (o *memObjects) UploadFile(_ context.Context, bucket, key string, data []byte, _ string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.uploadErr != nil {
		return "", o.uploadErr
	}
	o.objects[key] = data
	return "https://" + bucket + ".example/" + key, nil
}

func (o *memObjects) DeleteFile(_ context.Context, _ string, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, key)
	return nil
}

func (o *memObjects) GetFile(_ context.Context, _ string, key string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return b, nil
}

type fakeExtractor struct {
	res   extraction.Result
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, src extraction.Source) (extraction.Result, error) {
	f.calls++
	if f.err != nil {
		return extraction.Result{}, f.err
	}
	return f.res, nil
}

type fakeQueue struct {
	ids  []string
	full bool
}

func (q *fakeQueue) Enqueue(id string) bool {
	if q.full {
		return false
	}
	q.ids = append(q.ids, id)
	return true
}

// cannedLLM is a core.LLMProvider that always returns response.
type cannedLLM struct {
	response string
	calls    int
}

func (l *cannedLLM) Generate(context.Context, string, string) (string, error) {
	l.calls++
	return l.response, nil
}

// fakeGenerator returns canned artifacts or a fixed error.
type fakeGenerator struct {
	quiz      []models.QuizQuestion
	cards     []models.Flashcard
	text      string
	err       error
	lastText  string
	lastLang  string
	lastQuery string
}

func (g *fakeGenerator) Summarize(_ context.Context, text string) (string, error) {
	g.lastText = text
	return g.text, g.err
}

func (g *fakeGenerator) Quiz(_ context.Context, text string) ([]models.QuizQuestion, error) {
	g.lastText = text
	if g.err != nil {
		return nil, g.err
	}
	return g.quiz, nil
}

func (g *fakeGenerator) Flashcards(_ context.Context, text string) ([]models.Flashcard, error) {
	g.lastText = text
	if g.err != nil {
		return nil, g.err
	}
	return g.cards, nil
}

func (g *fakeGenerator) Translate(_ context.Context, text, lang string) (string, error) {
	g.lastText, g.lastLang = text, lang
	return g.text, g.err
}

func (g *fakeGenerator) Answer(_ context.Context, contextText, question string) (string, error) {
	g.lastText, g.lastQuery = contextText, question
	return g.text, g.err
}

type fakeEmbedder struct{ err error }

func (f fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func seedMaterial(s *memStore, id, userID, fileName string) *models.StudyMaterial {
	m := &models.StudyMaterial{
		ID: id, UserID: userID, FileName: fileName, Language: models.LanguageEnglish,
		ExtractedText: "Cells are the basic unit of life.", ExtractionMethod: "direct",
		IndexStatus: models.IndexDisabled, CreatedAt: time.Now(),
	}
	s.materials[id] = m
	return m
}

func validQuiz() []models.QuizQuestion {
	out := make([]models.QuizQuestion, 10)
	for i := range out {
		out[i] = models.QuizQuestion{QuestionText: "Q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"}
	}
	return out
}

func isKind(err error, k apperr.Kind) bool { return err != nil && apperr.KindOf(err) == k }
