package extraction

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var _ Recognizer = (*TesseractCLI)(nil)

// TesseractCLI runs the tesseract binary once per image. The process is
// killed when ctx is done.
type TesseractCLI struct {
	path string
}

func NewTesseractCLI(path string) *TesseractCLI {
	if path == "" {
		path = "tesseract"
	}
	return &TesseractCLI{path: path}
}

func (t *TesseractCLI) AssertReady() error {
	if _, err := exec.LookPath(t.path); err != nil {
		return fmt.Errorf("tesseract not available at %q: %w", t.path, err)
	}
	return nil
}

func (t *TesseractCLI) Recognize(ctx context.Context, imagePath, languageHint string) (string, error) {
	if languageHint == "" {
		languageHint = "eng"
	}
	cmd := exec.CommandContext(ctx, t.path, imagePath, "stdout", "-l", languageHint)
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("tesseract failed: %w; stderr=%s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return string(out), nil
}
