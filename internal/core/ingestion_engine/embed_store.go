package ingestion_engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/markdave123-py/studybuddy/internal/models"
)

// embedAndPersist consumes chunks, embeds them in batches and writes them.
//
// materialID: material being indexed.
// in:         chunk stream from streamChunk.
// batchSize:  chunks per embed/write round trip.
func (i *MaterialIndexer) embedAndPersist(
	ctx context.Context,
	materialID string,
	in <-chan chunk,
	batchSize int,
) error {
	batch := make([]chunk, 0, batchSize)

	flush := func(items []chunk) error {
		if len(items) == 0 {
			return nil
		}

		texts := make([]string, len(items))
		for idx := range items {
			texts[idx] = items[idx].Text
		}

		vecs, err := i.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(vecs) != len(items) {
			return fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), len(items))
		}

		rows := make([]models.MaterialChunk, len(items))
		for k := range items {
			rows[k] = models.MaterialChunk{
				ID:         uuid.NewString(),
				MaterialID: materialID,
				Text:       items[k].Text,
				Embedding:  vecs[k],
				Position:   items[k].Pos,
				TokenCount: items[k].TokenCnt,
			}
		}
		if err := i.store.InsertMaterialChunks(ctx, rows); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
		return nil
	}

	for c := range in {
		batch = append(batch, c)
		if len(batch) == batchSize {
			if err := flush(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return flush(batch)
}
