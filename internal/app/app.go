// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/markdave123-py/studybuddy/internal/config"
	"github.com/markdave123-py/studybuddy/internal/core"
	db "github.com/markdave123-py/studybuddy/internal/core/database"
	"github.com/markdave123-py/studybuddy/internal/core/extraction"
	"github.com/markdave123-py/studybuddy/internal/core/generation"
	"github.com/markdave123-py/studybuddy/internal/core/ingestion_engine"
	"github.com/markdave123-py/studybuddy/internal/core/llm"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	objectclient "github.com/markdave123-py/studybuddy/internal/core/object-client"
	"github.com/markdave123-py/studybuddy/internal/services"
)

type App struct {
	DBClient     *db.DatabaseClient
	ObjectClient core.ObjectClient
	Indexer      *ingestion_engine.MaterialIndexer
	Server       *Server

	cfg     *config.Config
	log     *logger.Logger
	closers []func() error
}

func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{cfg: cfg, log: log}

	dbClient, err := db.NewDatabaseClient(appCtx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.DBClient = dbClient
	a.closers = append(a.closers, dbClient.Close)

	objClient, err := newObjectClient(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.ObjectClient = objClient
	log.Info("object storage ready", "store", cfg.ObjectStore, "bucket", cfg.BucketName)

	llmProvider, err := a.newLLM(appCtx)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Embeddings only exist on Gemini; without a key the tutor reads full text.
	var embedder core.EmbeddingProvider
	if cfg.AIAPIKey != "" {
		geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
		}
		a.closers = append(a.closers, geminiEmbedder.Close)
		embedder = geminiEmbedder
	} else {
		log.Warn("GEMINI_API_KEY not set, material indexing disabled")
	}

	extractor, err := a.newExtractor()
	if err != nil {
		a.Close()
		return nil, err
	}

	var queue services.IndexQueue
	if embedder != nil {
		a.Indexer = ingestion_engine.NewMaterialIndexer(dbClient, embedder, ingestion_engine.IndexConfig{
			TargetTokens:  300,
			OverlapTokens: 30,
			BatchSize:     16,
		}, log.With("component", "indexer"))
		queue = a.Indexer
	}

	gen := generation.NewGenerator(llmProvider, cfg.GenTimeout, log.With("component", "generator"))

	loc, err := time.LoadLocation(cfg.StreakTimezone)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load STREAK_TIMEZONE: %w", err)
	}

	deps := Deps{
		Users:     services.NewUserService(dbClient),
		Materials: services.NewMaterialService(dbClient, objClient, cfg.BucketName, extractor, queue, log),
		Study:     services.NewStudyService(dbClient, gen, log),
		Progress:  services.NewProgressService(dbClient, loc, log),
		Tutor:     services.NewTutorService(dbClient, embedder, gen, log),
	}
	a.Server = NewServer(cfg, log, deps)
	return a, nil
}

// Start launches the background index workers.
func (a *App) Start(ctx context.Context) {
	if a.Indexer != nil {
		a.Indexer.Start(ctx, a.cfg.IndexWorkers)
		a.log.Info("index workers started", "workers", a.cfg.IndexWorkers)
	}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func newObjectClient(ctx context.Context, cfg *config.Config) (core.ObjectClient, error) {
	switch cfg.ObjectStore {
	case "s3":
		return objectclient.NewS3Client(ctx, cfg)
	case "minio":
		return objectclient.NewMinioClient(ctx, cfg)
	case "none":
		return objectclient.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown OBJECT_STORE %q", cfg.ObjectStore)
	}
}

func (a *App) newLLM(ctx context.Context) (core.LLMProvider, error) {
	switch a.cfg.LLMProvider {
	case "openai":
		a.log.Info("completion service", "provider", "openai", "model", a.cfg.OpenAIModel)
		return llm.NewOpenAILLM(a.cfg.OpenAIAPIKey, a.cfg.OpenAIBaseURL, a.cfg.OpenAIModel), nil
	case "gemini":
		g, err := llm.NewGeminiLLM(ctx, a.cfg.AIAPIKey, a.cfg.GenModel)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the llm, %w", err)
		}
		a.closers = append(a.closers, g.Close)
		a.log.Info("completion service", "provider", "gemini", "model", a.cfg.GenModel)
		return g, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", a.cfg.LLMProvider)
	}
}

func (a *App) newExtractor() (*extraction.Extractor, error) {
	if err := os.MkdirAll(a.cfg.WorkDir, 0o700); err != nil {
		return nil, fmt.Errorf("create WORK_DIR: %w", err)
	}

	raster := extraction.NewPdftoppm(a.cfg.PdftoppmPath, a.log)
	if err := raster.AssertReady(); err != nil {
		a.log.Warn("scanned PDFs cannot be recognized", "error", err)
	}

	var ocr extraction.Recognizer
	switch a.cfg.OCREngine {
	case "gosseract":
		g, err := extraction.NewGosseract()
		if err != nil {
			return nil, err
		}
		ocr = g
	default:
		t := extraction.NewTesseractCLI(a.cfg.TesseractPath)
		if err := t.AssertReady(); err != nil {
			a.log.Warn("OCR fallback unavailable", "error", err)
		}
		ocr = t
	}

	return extraction.New(extraction.NewDocconvExtractor(false), raster, ocr, extraction.Options{
		WorkDir:     a.cfg.WorkDir,
		Language:    a.cfg.OCRLanguage,
		Concurrency: a.cfg.OCRConcurrency,
		PageTimeout: a.cfg.OCRPageTimeout,
	}, a.log.With("component", "extractor")), nil
}
