package ingestion_engine

import "context"

// Indexer schedules background indexing of materials.
type Indexer interface {
	Start(ctx context.Context, numWorkers int)
	Enqueue(materialID string) bool
	ProcessOne(ctx context.Context, materialID string) error
}

var _ Indexer = (*MaterialIndexer)(nil)
