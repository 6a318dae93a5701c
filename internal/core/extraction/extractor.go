package extraction

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/studybuddy/internal/core/apperr"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
)

const (
	// MinDirectTextChars is the trimmed length below which a document is
	// treated as image-based and sent through optical recognition.
	MinDirectTextChars = 100
	// RenderDPI is the rasterization resolution for recognition.
	RenderDPI = 300
)

type Method string

const (
	MethodDirect Method = "direct"
	MethodOCR    Method = "ocr"
)

// Source is one uploaded document.
type Source struct {
	Name        string
	ContentType string
	Data        []byte
}

type Result struct {
	Text   string
	Method Method
	// Pages is the number of recognized page images; zero for direct extraction.
	Pages int
}

// DirectExtractor reads the embedded text layer of a document.
type DirectExtractor interface {
	ExtractText(ctx context.Context, path, contentType string) (string, error)
}

// PageRange selects pages to render, 1-based and inclusive. Zero values mean
// first and last page.
type PageRange struct {
	First int
	Last  int
}

type RenderRequest struct {
	DocumentPath string
	OutDir       string
	// Prefix names the images; it must be unique per request.
	Prefix string
	DPI    int
	Pages  PageRange
}

// Rasterizer renders document pages to images and returns their paths in
// ascending page order.
type Rasterizer interface {
	Render(ctx context.Context, req RenderRequest) ([]string, error)
}

// Recognizer runs optical character recognition on one image.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath, languageHint string) (string, error)
}

type Options struct {
	WorkDir     string
	Language    string
	Concurrency int
	PageTimeout time.Duration
}

// Extractor converts uploaded documents to plain text. All files it creates
// live under a per-request directory inside WorkDir, which is removed before
// Extract returns.
type Extractor struct {
	direct DirectExtractor
	raster Rasterizer
	ocr    Recognizer
	opts   Options
	log    *logger.Logger
}

func New(direct DirectExtractor, raster Rasterizer, ocr Recognizer, opts Options, log *logger.Logger) *Extractor {
	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(os.TempDir(), "studybuddy")
	}
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{direct: direct, raster: raster, ocr: ocr, opts: opts, log: log}
}

type docKind int

const (
	kindOther docKind = iota
	kindPDF
	kindImage
)

// Extract returns the text of src, falling back to page-level recognition when
// the direct text is shorter than MinDirectTextChars. The returned text is
// never empty.
func (e *Extractor) Extract(ctx context.Context, src Source) (Result, error) {
	if len(src.Data) == 0 {
		return Result{}, apperr.Input("uploaded file is empty")
	}

	requestID := uuid.NewString()
	reqDir := filepath.Join(e.opts.WorkDir, requestID)
	if err := os.MkdirAll(reqDir, 0o700); err != nil {
		return Result{}, apperr.Internal("", fmt.Errorf("create work dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(reqDir); err != nil {
			e.log.Error("work dir cleanup failed", "dir", reqDir, "error", err)
		}
	}()

	uploadPath := filepath.Join(reqDir, requestID+"-upload"+safeExt(src.Name))
	if err := os.WriteFile(uploadPath, src.Data, 0o600); err != nil {
		return Result{}, apperr.Internal("", fmt.Errorf("write upload: %w", err))
	}
	defer e.removeFile(uploadPath)

	contentType := resolveContentType(src)
	kind := classify(src.Name, contentType)
	log := e.log.With("request_id", requestID, "file_name", src.Name, "content_type", contentType)

	var direct string
	if kind != kindImage {
		direct = e.directText(ctx, log, uploadPath, contentType)
	}
	if utf8.RuneCountInString(direct) >= MinDirectTextChars {
		log.Debug("direct extraction", "chars", utf8.RuneCountInString(direct))
		return Result{Text: direct, Method: MethodDirect}, nil
	}

	var images []string
	switch kind {
	case kindPDF:
		rendered, err := e.render(ctx, requestID, reqDir, uploadPath)
		if err != nil {
			return Result{}, err
		}
		images = rendered
	case kindImage:
		images = []string{uploadPath}
	default:
		if direct != "" {
			return Result{Text: direct, Method: MethodDirect}, nil
		}
		return Result{}, apperr.Extraction("no text could be extracted from this file type", nil)
	}

	log.Info("falling back to optical recognition", "direct_chars", utf8.RuneCountInString(direct), "pages", len(images))
	pages, err := e.recognizePages(ctx, images)
	if err != nil {
		return Result{}, err
	}

	text := strings.TrimSpace(strings.Join(pages, "\n"))
	switch {
	case text != "":
		return Result{Text: text, Method: MethodOCR, Pages: len(images)}, nil
	case direct != "":
		log.Warn("recognition found no text, keeping short direct text", "direct_chars", utf8.RuneCountInString(direct))
		return Result{Text: direct, Method: MethodDirect}, nil
	default:
		return Result{}, apperr.Extraction("could not extract any text from the document", nil)
	}
}

// directText never fails: an unreadable text layer counts as no text.
func (e *Extractor) directText(ctx context.Context, log *logger.Logger, path, contentType string) string {
	if e.direct == nil {
		return ""
	}
	text, err := e.direct.ExtractText(ctx, path, contentType)
	if err != nil {
		log.Warn("direct extraction failed", "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

func (e *Extractor) render(ctx context.Context, requestID, reqDir, docPath string) ([]string, error) {
	if e.raster == nil {
		return nil, apperr.Extraction("document has no text layer and page rendering is unavailable", nil)
	}
	outDir := filepath.Join(reqDir, "pages")
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return nil, apperr.Internal("", fmt.Errorf("create pages dir: %w", err))
	}
	images, err := e.raster.Render(ctx, RenderRequest{
		DocumentPath: docPath,
		OutDir:       outDir,
		Prefix:       requestID + "-page",
		DPI:          RenderDPI,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, cancelled(ctxErr)
		}
		return nil, apperr.Extraction("could not render the document pages", err)
	}
	if len(images) == 0 {
		return nil, apperr.Extraction("the document has no pages", nil)
	}
	return images, nil
}

// recognizePages fans out over images with bounded concurrency and returns
// the page texts in input order. Each image is removed once its page is done,
// whether it succeeded, failed or was skipped after another page failed.
func (e *Extractor) recognizePages(ctx context.Context, images []string) ([]string, error) {
	if e.ocr == nil {
		for _, img := range images {
			e.removeFile(img)
		}
		return nil, apperr.Extraction("optical recognition is unavailable", nil)
	}

	texts := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, img := range images {
		g.Go(func() error {
			defer e.removeFile(img)
			if err := gctx.Err(); err != nil {
				return err
			}
			pctx := gctx
			if e.opts.PageTimeout > 0 {
				var cancel context.CancelFunc
				pctx, cancel = context.WithTimeout(gctx, e.opts.PageTimeout)
				defer cancel()
			}
			text, err := e.ocr.Recognize(pctx, img, e.opts.Language)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			texts[i] = strings.TrimSpace(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, cancelled(ctxErr)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Service("optical recognition timed out", err)
		}
		return nil, apperr.Service("optical recognition failed", err)
	}
	return texts, nil
}

func (e *Extractor) removeFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.log.Error("temp file cleanup failed", "path", path, "error", err)
	}
}

func cancelled(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Service("text extraction timed out", err)
	}
	return err
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// safeExt keeps a short alphanumeric extension so tools that dispatch on it
// still work; anything else is dropped.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if extPattern.MatchString(ext) {
		return ext
	}
	return ""
}

func resolveContentType(src Source) string {
	ct := strings.ToLower(strings.TrimSpace(src.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		sniffed := http.DetectContentType(src.Data)
		if i := strings.IndexByte(sniffed, ';'); i >= 0 {
			sniffed = sniffed[:i]
		}
		if sniffed != "application/octet-stream" {
			return sniffed
		}
	}
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}

func classify(name, contentType string) docKind {
	switch {
	case contentType == "application/pdf":
		return kindPDF
	case strings.HasPrefix(contentType, "image/"):
		return kindImage
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return kindPDF
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif", ".webp":
		return kindImage
	}
	return kindOther
}
