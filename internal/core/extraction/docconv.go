package extraction

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"code.sajari.com/docconv"
)

var _ DirectExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor implements DirectExtractor using sajari/docconv.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ExtractText converts the file at path. docconv has no context support, so
// the conversion runs in its own goroutine and is abandoned on cancellation.
func (e *DocconvExtractor) ExtractText(ctx context.Context, path, contentType string) (string, error) {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = docconv.MimeTypeByExtension(path)
	}

	// Read up front so an abandoned conversion holds no handle into the
	// request dir.
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		res, err := docconv.Convert(bytes.NewReader(data), contentType, e.useReadability)
		if err != nil {
			done <- result{err: fmt.Errorf("docconv %s: %w", contentType, err)}
			return
		}
		done <- result{text: res.Body}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
