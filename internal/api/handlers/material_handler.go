package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/studybuddy/internal/api/middlewares"
	"github.com/markdave123-py/studybuddy/internal/core/apperr"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/models"
	"github.com/markdave123-py/studybuddy/internal/services"
)

// multipartMemory is how much of a multipart form is kept in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

type Materials interface {
	Upload(ctx context.Context, in services.UploadInput) (*models.StudyMaterial, error)
	Get(ctx context.Context, userID, id string) (*models.StudyMaterial, error)
	ListByUser(ctx context.Context, userID string) ([]models.MaterialSummary, error)
	Delete(ctx context.Context, userID, id string) error
}

type MaterialHandler struct {
	materials Materials
	maxUpload int64
	log       *logger.Logger
}

func NewMaterialHandler(materials Materials, maxUploadBytes int64, log *logger.Logger) *MaterialHandler {
	return &MaterialHandler{materials: materials, maxUpload: maxUploadBytes, log: log}
}

// Upload handles a multipart upload with fields "file" and "language".
func (h *MaterialHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, nil, "unauthorized")
		return
	}

	if r.ContentLength > h.maxUpload {
		writeJSON(w, http.StatusRequestEntityTooLarge, nil, "file is too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, nil, "file is too large")
			return
		}
		writeError(w, r, h.log, apperr.Input("invalid multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, h.log, apperr.Input("no file uploaded"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, h.log, apperr.Input("could not read uploaded file"))
		return
	}

	m, err := h.materials.Upload(r.Context(), services.UploadInput{
		UserID:      userID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Language:    r.FormValue("language"),
		Data:        data,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, m, "study material uploaded")
}

func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, nil, "unauthorized")
		return
	}
	out, err := h.materials.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out, "study materials retrieved")
}

func (h *MaterialHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, nil, "unauthorized")
		return
	}
	m, err := h.materials.Get(r.Context(), userID, chi.URLParam(r, "materialId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, m, "study material retrieved")
}

func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, nil, "unauthorized")
		return
	}
	if err := h.materials.Delete(r.Context(), userID, chi.URLParam(r, "materialId")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nil, "study material deleted")
}
