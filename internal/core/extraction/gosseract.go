//go:build ocr

package extraction

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

var _ Recognizer = (*Gosseract)(nil)

// Gosseract recognizes images in-process through libtesseract.
type Gosseract struct{}

func NewGosseract() (*Gosseract, error) {
	return &Gosseract{}, nil
}

// Recognize uses a fresh client per call; gosseract clients are not safe for
// concurrent use. The cgo call cannot be interrupted, so on cancellation the
// result is discarded.
func (g *Gosseract) Recognize(ctx context.Context, imagePath, languageHint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if languageHint == "" {
		languageHint = "eng"
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		client := gosseract.NewClient()
		defer client.Close()
		if err := client.SetLanguage(languageHint); err != nil {
			done <- result{err: fmt.Errorf("gosseract language: %w", err)}
			return
		}
		if err := client.SetImage(imagePath); err != nil {
			done <- result{err: fmt.Errorf("gosseract image: %w", err)}
			return
		}
		text, err := client.Text()
		if err != nil {
			err = fmt.Errorf("gosseract: %w", err)
		}
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
