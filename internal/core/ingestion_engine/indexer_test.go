package ingestion_engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/models"
)

type memIndexStore struct {
	mu        sync.Mutex
	materials map[string]*models.StudyMaterial
	status    map[string][]string
	chunks    map[string][]models.MaterialChunk
	insertErr error
	// processingErr fails the transition to processing.
	processingErr error
}

func newMemIndexStore() *memIndexStore {
	return &memIndexStore{
		materials: map[string]*models.StudyMaterial{},
		status:    map[string][]string{},
		chunks:    map[string][]models.MaterialChunk{},
	}
}

func (s *memIndexStore) GetMaterialByID(_ context.Context, id string) (*models.StudyMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materials[id], nil
}

func (s *memIndexStore) UpdateIndexStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == models.IndexProcessing && s.processingErr != nil {
		return s.processingErr
	}
	s.status[id] = append(s.status[id], status)
	return nil
}

func (s *memIndexStore) InsertMaterialChunks(_ context.Context, rows []models.MaterialChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, r := range rows {
		s.chunks[r.MaterialID] = append(s.chunks[r.MaterialID], r)
	}
	return nil
}

func (s *memIndexStore) DeleteMaterialChunks(_ context.Context, materialID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, materialID)
	return nil
}

func (s *memIndexStore) SearchMaterialChunks(context.Context, string, []float32, int) ([]models.MaterialChunk, error) {
	return nil, nil
}

func (s *memIndexStore) lastStatus(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status[id]
	if len(st) == 0 {
		return ""
	}
	return st[len(st)-1]
}

type fakeEmbedder struct {
	mu      sync.Mutex
	batches int
	err     error
	short   bool
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batches++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func longText(lines int) string {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		b.WriteString("photosynthesis converts light energy into chemical energy\n\n")
	}
	return b.String()
}

func TestProcessOne_PersistsOrderedChunks(t *testing.T) {
	store := newMemIndexStore()
	store.materials["m1"] = &models.StudyMaterial{ID: "m1", ExtractedText: longText(40)}
	emb := &fakeEmbedder{}
	ix := NewMaterialIndexer(store, emb, IndexConfig{TargetTokens: 50, BatchSize: 2}, nil)

	if err := ix.ProcessOne(context.Background(), "m1"); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if got := store.lastStatus("m1"); got != models.IndexReady {
		t.Fatalf("status: want=%s got=%s", models.IndexReady, got)
	}
	rows := store.chunks["m1"]
	if len(rows) < 2 {
		t.Fatalf("chunks: want>=2 got=%d", len(rows))
	}
	for i, r := range rows {
		if r.Position != i {
			t.Fatalf("position[%d]: got=%d", i, r.Position)
		}
		if r.ID == "" || len(r.Embedding) != 2 {
			t.Fatalf("row %d incomplete: %+v", i, r)
		}
	}
}

func TestProcessOne_EmbedFailureLeavesNoChunks(t *testing.T) {
	store := newMemIndexStore()
	store.materials["m1"] = &models.StudyMaterial{ID: "m1", ExtractedText: longText(40)}
	store.chunks["m1"] = []models.MaterialChunk{{ID: "stale", MaterialID: "m1"}}
	ix := NewMaterialIndexer(store, &fakeEmbedder{err: errors.New("quota")}, IndexConfig{TargetTokens: 50}, nil)

	if err := ix.ProcessOne(context.Background(), "m1"); err == nil {
		t.Fatalf("want error")
	}
	if got := store.lastStatus("m1"); got != models.IndexFailed {
		t.Fatalf("status: want=%s got=%s", models.IndexFailed, got)
	}
	if n := len(store.chunks["m1"]); n != 0 {
		t.Fatalf("chunks: want=0 got=%d", n)
	}
}

func TestProcessOne_StatusUpdateFailureIsLogged(t *testing.T) {
	store := newMemIndexStore()
	store.materials["m1"] = &models.StudyMaterial{ID: "m1", ExtractedText: longText(10)}
	store.processingErr = errors.New("connection reset")
	obsCore, logs := observer.New(zapcore.WarnLevel)
	log := &logger.Logger{SugaredLogger: zap.New(obsCore).Sugar()}
	ix := NewMaterialIndexer(store, &fakeEmbedder{}, IndexConfig{TargetTokens: 50}, log)

	if err := ix.ProcessOne(context.Background(), "m1"); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if got := store.lastStatus("m1"); got != models.IndexReady {
		t.Fatalf("status: want=%s got=%s", models.IndexReady, got)
	}
	entries := logs.FilterMessage("index status update failed").All()
	if len(entries) != 1 {
		t.Fatalf("warnings: want=1 got=%d", len(entries))
	}
	if got := entries[0].ContextMap()["material_id"]; got != "m1" {
		t.Fatalf("material_id: want=m1 got=%v", got)
	}
}

func TestProcessOne_SizeMismatch(t *testing.T) {
	store := newMemIndexStore()
	store.materials["m1"] = &models.StudyMaterial{ID: "m1", ExtractedText: longText(10)}
	ix := NewMaterialIndexer(store, &fakeEmbedder{short: true}, IndexConfig{}, nil)

	err := ix.ProcessOne(context.Background(), "m1")
	if err == nil || !strings.Contains(err.Error(), "size mismatch") {
		t.Fatalf("want size mismatch, got %v", err)
	}
}

func TestProcessOne_MissingMaterialIsNoop(t *testing.T) {
	store := newMemIndexStore()
	ix := NewMaterialIndexer(store, &fakeEmbedder{}, IndexConfig{}, nil)
	if err := ix.ProcessOne(context.Background(), "gone"); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if got := store.lastStatus("gone"); got != "" {
		t.Fatalf("status: want none got=%s", got)
	}
}

func TestEnqueue_FullQueueRefuses(t *testing.T) {
	ix := NewMaterialIndexer(newMemIndexStore(), &fakeEmbedder{}, IndexConfig{QueueSize: 1}, nil)
	if !ix.Enqueue("a") {
		t.Fatalf("first enqueue refused")
	}
	if ix.Enqueue("b") {
		t.Fatalf("second enqueue accepted on full queue")
	}
}

func TestStart_WorkersDrainQueue(t *testing.T) {
	store := newMemIndexStore()
	for _, id := range []string{"a", "b", "c"} {
		store.materials[id] = &models.StudyMaterial{ID: id, ExtractedText: longText(5)}
	}
	ix := NewMaterialIndexer(store, &fakeEmbedder{}, IndexConfig{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	ix.Start(ctx, 2)
	for _, id := range []string{"a", "b", "c"} {
		ix.Enqueue(id)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if store.lastStatus("a") == models.IndexReady &&
			store.lastStatus("b") == models.IndexReady &&
			store.lastStatus("c") == models.IndexReady {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	ix.Wait()

	for _, id := range []string{"a", "b", "c"} {
		if got := store.lastStatus(id); got != models.IndexReady {
			t.Fatalf("%s: want=%s got=%s", id, models.IndexReady, got)
		}
	}
}

func TestStreamChunk_OverlapNeverEmittedAlone(t *testing.T) {
	g, ctx := errgroup.WithContext(context.Background())
	frags := make(chan string, 4)
	frags <- strings.Repeat("a", 40) // 10 tokens
	frags <- strings.Repeat("b", 40)
	close(frags)

	out := streamChunk(ctx, g, frags, 10, 5)
	var got []chunk
	for c := range out {
		got = append(got, c)
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("chunks: want=2 got=%d", len(got))
	}
	if !strings.HasPrefix(got[1].Text, strings.Repeat("a", 40)) {
		t.Fatalf("second chunk should start with overlap: %q", got[1].Text)
	}
}

func TestApproxTokens(t *testing.T) {
	cases := map[string]int{"": 0, "abc": 1, "abcd": 1, "abcde": 2, "éééé": 1}
	for in, want := range cases {
		if got := approxTokens(in); got != want {
			t.Fatalf("approxTokens(%q): want=%d got=%d", in, want, got)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	c := IndexConfig{TargetTokens: 10, OverlapTokens: 10}.withDefaults()
	if c.OverlapTokens != 0 || c.BatchSize != 16 || c.QueueSize != 64 {
		t.Fatalf("defaults: %+v", c)
	}
}
