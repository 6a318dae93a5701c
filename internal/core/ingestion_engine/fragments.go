package ingestion_engine

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// streamFragments emits the non-blank lines of text, trimmed, in order.
func streamFragments(ctx context.Context, g *errgroup.Group, text string) <-chan string {
	out := make(chan string, 32)

	g.Go(func() error {
		defer close(out)
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	return out
}
