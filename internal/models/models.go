package models

import (
	"time"

	"github.com/markdave123-py/studybuddy/internal/core/progress"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Material languages. The tag is descriptive only.
const (
	LanguageEnglish = "english"
	LanguageHindi   = "hindi"
	LanguageMarathi = "marathi"
)

// ValidLanguage reports whether lang is one of the supported material languages.
func ValidLanguage(lang string) bool {
	switch lang {
	case LanguageEnglish, LanguageHindi, LanguageMarathi:
		return true
	}
	return false
}

// Index states of a material's tutor retrieval index.
const (
	IndexPending    = "pending"
	IndexProcessing = "processing"
	IndexReady      = "ready"
	IndexFailed     = "failed"
	IndexDisabled   = "disabled"
)

// StudyMaterial is an uploaded document together with the text extracted from it.
// It is only created after extraction succeeded, so ExtractedText is never empty.
type StudyMaterial struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"userId"`
	FileName         string    `db:"file_name" json:"fileName"`
	ContentType      string    `db:"content_type" json:"contentType"`
	StorageURL       string    `db:"storage_url" json:"storageUrl,omitempty"`
	StorageKey       string    `db:"storage_key" json:"-"`
	Language         string    `db:"language" json:"language"`
	ExtractedText    string    `db:"extracted_text" json:"extractedText"`
	ExtractionMethod string    `db:"extraction_method" json:"extractionMethod"`
	PageCount        int       `db:"page_count" json:"pageCount"`
	IndexStatus      string    `db:"index_status" json:"indexStatus"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// MaterialSummary is the list view of a material, without its text.
type MaterialSummary struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	Language    string    `json:"language"`
	IndexStatus string    `json:"indexStatus"`
	CreatedAt   time.Time `json:"createdAt"`
}

type QuizQuestion struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

type Quiz struct {
	ID         string         `db:"id" json:"id"`
	MaterialID string         `db:"material_id" json:"studyMaterial"`
	Title      string         `db:"title" json:"title"`
	Questions  []QuizQuestion `db:"questions" json:"questions"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type FlashcardSet struct {
	ID         string      `db:"id" json:"id"`
	MaterialID string      `db:"material_id" json:"studyMaterial"`
	Cards      []Flashcard `db:"cards" json:"cards"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
}

// Freeform artifact kinds.
const (
	ArtifactSummary     = "summary"
	ArtifactTranslation = "translation"
)

// TextArtifact is a generated freeform artifact (summary or translation).
type TextArtifact struct {
	ID             string    `db:"id" json:"id"`
	MaterialID     string    `db:"material_id" json:"studyMaterial"`
	Kind           string    `db:"kind" json:"kind"`
	TargetLanguage string    `db:"target_language" json:"targetLanguage,omitempty"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// MaterialChunk represents one embedded text chunk of a material.
type MaterialChunk struct {
	ID         string    `db:"id" json:"id"`
	MaterialID string    `db:"material_id" json:"material_id"`
	Text       string    `db:"text" json:"text"`
	Embedding  []float32 `db:"embedding" json:"-"`
	Position   int       `db:"position" json:"position"`
	TokenCount int       `db:"token_count" json:"token_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// QuizScore is one logged quiz attempt.
type QuizScore struct {
	QuizID    string    `json:"quiz"`
	QuizTitle string    `json:"quizTitle"`
	Score     float64   `json:"score"`
	TakenAt   time.Time `json:"takenAt"`
}

// ProgressRecord is the per-user progress state. There is at most one per user.
type ProgressRecord struct {
	UserID     string           `db:"user_id" json:"user"`
	QuizScores []QuizScore      `db:"quiz_scores" json:"quizScores"`
	Streak     progress.Streak  `db:"streak" json:"studyStreaks"`
	Heatmap    progress.Heatmap `db:"heatmap" json:"knowledgeHeatmap"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updatedAt"`
}

// NewProgressRecord returns the zero-valued record of a user with no history.
func NewProgressRecord(userID string) *ProgressRecord {
	return &ProgressRecord{
		UserID:     userID,
		QuizScores: []QuizScore{},
		Heatmap:    progress.Heatmap{},
	}
}

// Dashboard is the read model served to the progress dashboard.
type Dashboard struct {
	QuizScores       []QuizScore        `json:"quizScores"`
	StudyStreaks     progress.Streak    `json:"studyStreaks"`
	KnowledgeHeatmap map[string]float64 `json:"knowledgeHeatmap"`
}
