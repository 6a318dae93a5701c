//go:build !ocr

package extraction

import (
	"context"
	"errors"
)

var errNoGosseract = errors.New("in-process OCR requires building with -tags ocr")

// Gosseract is unavailable without the ocr build tag.
type Gosseract struct{}

func NewGosseract() (*Gosseract, error) {
	return nil, errNoGosseract
}

func (g *Gosseract) Recognize(ctx context.Context, imagePath, languageHint string) (string, error) {
	return "", errNoGosseract
}
