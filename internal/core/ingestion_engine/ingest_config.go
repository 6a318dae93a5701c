package ingestion_engine

import (
	"context"
	"sync"

	"github.com/markdave123-py/studybuddy/internal/core"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/models"
)

// IndexConfig tunes the streaming pipeline.
//
// TargetTokens:  approximate tokens per chunk (e.g., 300).
// OverlapTokens: token overlap between consecutive chunks (e.g., 30).
// BatchSize:     how many chunks to embed/write in one batch (e.g., 16).
// QueueSize:     pending material ids before Enqueue starts refusing.
type IndexConfig struct {
	TargetTokens  int
	OverlapTokens int
	BatchSize     int
	QueueSize     int
}

func (c IndexConfig) withDefaults() IndexConfig {
	if c.TargetTokens <= 0 {
		c.TargetTokens = 300
	}
	if c.OverlapTokens < 0 || c.OverlapTokens >= c.TargetTokens {
		c.OverlapTokens = 0
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 16
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	return c
}

// IndexStore is the persistence the indexer needs.
type IndexStore interface {
	GetMaterialByID(ctx context.Context, id string) (*models.StudyMaterial, error)
	UpdateIndexStatus(ctx context.Context, id string, status string) error
	core.ChunkStore
}

// chunk is the internal representation passed through the pipeline.
//
// Pos:      stable, zero-based position of the chunk inside the material.
// Text:     chunk content (built from one or more fragments).
// TokenCnt: approximate token count (used for batching and overlap math).
type chunk struct {
	Pos      int
	Text     string
	TokenCnt int
}

// MaterialIndexer builds the tutor retrieval index in the background:
//
// store:    material lookups, status updates and chunk persistence.
// embedder: embedding provider.
// cfg:      runtime tuning knobs for the pipeline.
// jobs:     in-memory queue of material IDs to index.
type MaterialIndexer struct {
	store    IndexStore
	embedder core.EmbeddingProvider
	cfg      IndexConfig
	log      *logger.Logger
	jobs     chan string
	wg       sync.WaitGroup
}
