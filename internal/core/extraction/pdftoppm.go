package extraction

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/markdave123-py/studybuddy/internal/core/logger"
)

var _ Rasterizer = (*Pdftoppm)(nil)

// Pdftoppm renders PDF pages to PNG with poppler's pdftoppm binary.
type Pdftoppm struct {
	path string
	log  *logger.Logger
}

func NewPdftoppm(path string, log *logger.Logger) *Pdftoppm {
	if path == "" {
		path = "pdftoppm"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pdftoppm{path: path, log: log}
}

// AssertReady checks that the binary is on PATH.
func (p *Pdftoppm) AssertReady() error {
	if _, err := exec.LookPath(p.path); err != nil {
		return fmt.Errorf("pdftoppm not available at %q: %w", p.path, err)
	}
	return nil
}

func (p *Pdftoppm) Render(ctx context.Context, req RenderRequest) ([]string, error) {
	if req.DocumentPath == "" || req.OutDir == "" || req.Prefix == "" {
		return nil, fmt.Errorf("pdftoppm: document path, out dir and prefix are required")
	}
	if err := os.MkdirAll(req.OutDir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir out dir: %w", err)
	}
	dpi := req.DPI
	if dpi <= 0 {
		dpi = RenderDPI
	}

	pages := req.Pages
	expected := 0
	if pages.First == 0 && pages.Last == 0 {
		n, err := api.PageCountFile(req.DocumentPath)
		if err != nil {
			// pdftoppm tolerates files pdfcpu rejects; render everything it can.
			p.log.Warn("pdf page count failed", "error", err)
		} else {
			pages = PageRange{First: 1, Last: n}
			expected = n
		}
	}

	args := []string{"-r", strconv.Itoa(dpi), "-png"}
	if pages.First > 0 {
		args = append(args, "-f", strconv.Itoa(pages.First))
	}
	if pages.Last > 0 {
		args = append(args, "-l", strconv.Itoa(pages.Last))
	}
	args = append(args, req.DocumentPath, filepath.Join(req.OutDir, req.Prefix))

	cmd := exec.CommandContext(ctx, p.path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w; out=%s", err, string(out))
	}

	paths, err := pageImages(req.OutDir, req.Prefix)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images produced by pdftoppm; out=%s", string(out))
	}
	if expected > 0 && len(paths) != expected {
		return nil, fmt.Errorf("pdftoppm produced %d images for %d pages", len(paths), expected)
	}
	return paths, nil
}

// pageImages lists <prefix>-<n>.png files in dir ordered by page number.
// pdftoppm zero-pads n depending on the page count, so names are not
// sortable as strings.
func pageImages(dir, prefix string) ([]string, error) {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d+)\.png$`)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	type page struct {
		n    int
		path string
	}
	var found []page
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, page{n: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	out := make([]string, len(found))
	for i, p := range found {
		out[i] = p.path
	}
	return out, nil
}
