package core

import (
	"context"

	"github.com/markdave123-py/studybuddy/internal/models"
)

// Lookups return (nil, nil) when the row does not exist.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)
}

type MaterialStore interface {
	CreateMaterial(ctx context.Context, m *models.StudyMaterial) error
	GetMaterialByID(ctx context.Context, id string) (*models.StudyMaterial, error)
	ListMaterialsByUser(ctx context.Context, userID string) ([]models.MaterialSummary, error)
	UpdateIndexStatus(ctx context.Context, id string, status string) error
	DeleteMaterial(ctx context.Context, id string) error
}

// ArtifactStore persists generated artifacts. Rows are write-once.
type ArtifactStore interface {
	CreateQuiz(ctx context.Context, q *models.Quiz) error
	GetQuizByID(ctx context.Context, id string) (*models.Quiz, error)
	ListQuizzesByMaterial(ctx context.Context, materialID string) ([]models.Quiz, error)
	CreateFlashcardSet(ctx context.Context, fs *models.FlashcardSet) error
	ListFlashcardSetsByMaterial(ctx context.Context, materialID string) ([]models.FlashcardSet, error)
	CreateTextArtifact(ctx context.Context, a *models.TextArtifact) error
}

type ChunkStore interface {
	InsertMaterialChunks(ctx context.Context, chunks []models.MaterialChunk) error
	DeleteMaterialChunks(ctx context.Context, materialID string) error
	SearchMaterialChunks(ctx context.Context, materialID string, queryVec []float32, limit int) ([]models.MaterialChunk, error)
}

// ProgressStore serializes updates per user. UpdateProgress creates the record
// when missing and runs fn with exclusive access to it; the record fn leaves
// behind is saved only if fn returns nil.
type ProgressStore interface {
	GetProgress(ctx context.Context, userID string) (*models.ProgressRecord, error)
	UpdateProgress(ctx context.Context, userID string, fn func(rec *models.ProgressRecord) error) (*models.ProgressRecord, error)
}

// DbClient defines all persistence operations the services need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	UserStore
	MaterialStore
	ArtifactStore
	ChunkStore
	ProgressStore
	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}
