package ingestion_engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/studybuddy/internal/core"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/models"
)

const processTimeout = 5 * time.Minute

// NewMaterialIndexer constructs the indexer with a bounded job queue.
func NewMaterialIndexer(store IndexStore, emb core.EmbeddingProvider, cfg IndexConfig, log *logger.Logger) *MaterialIndexer {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &MaterialIndexer{
		store: store, embedder: emb, cfg: cfg, log: log,
		jobs: make(chan string, cfg.QueueSize),
	}
}

// Start runs numWorkers goroutines reading from the jobs queue until ctx is done.
func (i *MaterialIndexer) Start(ctx context.Context, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for w := 1; w <= numWorkers; w++ {
		i.wg.Add(1)
		go func(w int) {
			defer i.wg.Done()
			for {
				select {
				case <-ctx.Done():
					i.log.Debug("indexer worker shutting down", "worker", w)
					return
				case materialID := <-i.jobs:
					i.log.Info("indexing material", "material_id", materialID, "worker", w)
					if err := i.ProcessOne(ctx, materialID); err != nil {
						i.log.Error("indexing failed", "material_id", materialID, "error", err)
					}
				}
			}
		}(w)
	}
}

// Wait blocks until every worker has returned.
func (i *MaterialIndexer) Wait() { i.wg.Wait() }

// Enqueue schedules a material for indexing. It never blocks; false means the
// queue is full and the job was dropped.
func (i *MaterialIndexer) Enqueue(materialID string) bool {
	select {
	case i.jobs <- materialID:
		return true
	default:
		return false
	}
}

// ProcessOne chunks, embeds and persists the text of one material. A failed
// run leaves no chunks behind and marks the material's index as failed.
func (i *MaterialIndexer) ProcessOne(ctx context.Context, materialID string) error {
	proctx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	m, err := i.store.GetMaterialByID(proctx, materialID)
	if err != nil {
		return fmt.Errorf("load material: %w", err)
	}
	if m == nil {
		// Deleted before its turn came.
		return nil
	}

	if err := i.store.UpdateIndexStatus(proctx, materialID, models.IndexProcessing); err != nil {
		i.log.Warn("index status update failed", "material_id", materialID, "error", err)
	}
	if err := i.store.DeleteMaterialChunks(proctx, materialID); err != nil {
		return i.fail(materialID, fmt.Errorf("clear old chunks: %w", err))
	}

	// Build an errgroup to tie the pipeline stages together.
	g, gctx := errgroup.WithContext(proctx)

	// text -> fragments -> chunks.
	fragCh := streamFragments(gctx, g, m.ExtractedText)
	chunkCh := streamChunk(gctx, g, fragCh, i.cfg.TargetTokens, i.cfg.OverlapTokens)

	// chunks -> embed + persist.
	g.Go(func() error {
		return i.embedAndPersist(gctx, materialID, chunkCh, i.cfg.BatchSize)
	})

	// Any stage error cancels the rest.
	if err := g.Wait(); err != nil {
		return i.fail(materialID, err)
	}
	return i.store.UpdateIndexStatus(proctx, materialID, models.IndexReady)
}

// fail runs on a fresh context so cleanup still happens after a timeout.
func (i *MaterialIndexer) fail(materialID string, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := i.store.DeleteMaterialChunks(ctx, materialID); err != nil {
		i.log.Warn("chunk cleanup failed", "material_id", materialID, "error", err)
	}
	if err := i.store.UpdateIndexStatus(ctx, materialID, models.IndexFailed); err != nil {
		i.log.Warn("index status update failed", "material_id", materialID, "error", err)
	}
	return cause
}
