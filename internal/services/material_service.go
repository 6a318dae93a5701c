package services

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/studybuddy/internal/core"
	"github.com/markdave123-py/studybuddy/internal/core/apperr"
	"github.com/markdave123-py/studybuddy/internal/core/extraction"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/models"
)

// TextExtractor turns uploaded bytes into text.
type TextExtractor interface {
	Extract(ctx context.Context, src extraction.Source) (extraction.Result, error)
}

// IndexQueue schedules background indexing of a material.
type IndexQueue interface {
	Enqueue(materialID string) bool
}

// UploadInput is one uploaded document.
type UploadInput struct {
	UserID      string
	FileName    string
	ContentType string
	Language    string
	Data        []byte
}

type MaterialService struct {
	db        core.MaterialStore
	storage   core.ObjectClient
	bucket    string
	extractor TextExtractor
	indexer   IndexQueue
	log       *logger.Logger
}

// NewMaterialService wires the upload path. indexer may be nil, in which case
// materials are stored with IndexStatus=disabled.
func NewMaterialService(db core.MaterialStore, storage core.ObjectClient, bucket string, extractor TextExtractor, indexer IndexQueue, log *logger.Logger) *MaterialService {
	if log == nil {
		log = logger.Nop()
	}
	return &MaterialService{db: db, storage: storage, bucket: bucket, extractor: extractor, indexer: indexer, log: log}
}

// Upload extracts the text of the document, archives the original and stores
// the material. Nothing is persisted unless extraction produced text.
func (s *MaterialService) Upload(ctx context.Context, in UploadInput) (*models.StudyMaterial, error) {
	lang := strings.ToLower(strings.TrimSpace(in.Language))
	if lang == "" {
		lang = models.LanguageEnglish
	}
	if !models.ValidLanguage(lang) {
		return nil, apperr.Inputf("unsupported language %q", in.Language)
	}
	name := strings.TrimSpace(path.Base(strings.ReplaceAll(in.FileName, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return nil, apperr.Input("file name is required")
	}
	if len(in.Data) == 0 {
		return nil, apperr.Input("no file uploaded")
	}

	res, err := s.extractor.Extract(ctx, extraction.Source{Name: name, ContentType: in.ContentType, Data: in.Data})
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	key := s.objectKey(in.UserID, id, name)
	url, err := s.storage.UploadFile(ctx, s.bucket, key, in.Data, in.ContentType)
	if err != nil {
		return nil, apperr.Service("could not archive the uploaded file", err)
	}

	status := models.IndexDisabled
	if s.indexer != nil {
		status = models.IndexPending
	}
	now := time.Now().UTC()
	m := &models.StudyMaterial{
		ID:               id,
		UserID:           in.UserID,
		FileName:         name,
		ContentType:      in.ContentType,
		StorageURL:       url,
		StorageKey:       key,
		Language:         lang,
		ExtractedText:    res.Text,
		ExtractionMethod: string(res.Method),
		PageCount:        res.Pages,
		IndexStatus:      status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.db.CreateMaterial(ctx, m); err != nil {
		if derr := s.storage.DeleteFile(context.WithoutCancel(ctx), s.bucket, key); derr != nil {
			s.log.Warn("archived object left behind", "material_id", id, "key", key, "error", derr)
		}
		return nil, apperr.Internal("could not save material", err)
	}

	if s.indexer != nil && !s.indexer.Enqueue(id) {
		s.log.Warn("index queue full, material left pending", "material_id", id)
	}
	s.log.Info("material uploaded", "material_id", id, "user_id", in.UserID,
		"method", m.ExtractionMethod, "pages", m.PageCount, "chars", len(m.ExtractedText))
	return m, nil
}

// Get returns a material owned by userID.
func (s *MaterialService) Get(ctx context.Context, userID, id string) (*models.StudyMaterial, error) {
	return ownedMaterial(ctx, s.db, userID, id)
}

func (s *MaterialService) ListByUser(ctx context.Context, userID string) ([]models.MaterialSummary, error) {
	out, err := s.db.ListMaterialsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("could not list materials", err)
	}
	return out, nil
}

// Delete removes the material, its artifacts and its archived file.
func (s *MaterialService) Delete(ctx context.Context, userID, id string) error {
	m, err := ownedMaterial(ctx, s.db, userID, id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteMaterial(ctx, m.ID); err != nil {
		return apperr.Internal("could not delete material", err)
	}
	if m.StorageKey != "" {
		if err := s.storage.DeleteFile(ctx, s.bucket, m.StorageKey); err != nil {
			s.log.Warn("archived object left behind", "material_id", m.ID, "key", m.StorageKey, "error", err)
		}
	}
	return nil
}

// objectKey creates a consistent object key layout.
func (s *MaterialService) objectKey(userID, materialID, filename string) string {
	filename = strings.ReplaceAll(strings.TrimSpace(filename), " ", "_")
	return path.Join("users", userID, "materials", materialID, filename)
}

// ownedMaterial loads a material and checks that userID owns it.
func ownedMaterial(ctx context.Context, db core.MaterialStore, userID, id string) (*models.StudyMaterial, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Input("material id is required")
	}
	m, err := db.GetMaterialByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("could not load material", err)
	}
	if m == nil {
		return nil, apperr.NotFound("study material not found")
	}
	if m.UserID != userID {
		return nil, apperr.Authorization("you do not have access to this material")
	}
	return m, nil
}
