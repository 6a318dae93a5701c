package objectclient

import (
	"context"
	"errors"

	"github.com/markdave123-py/studybuddy/internal/core"
)

// ErrArchiveDisabled is returned by GetFile when archiving is off.
var ErrArchiveDisabled = errors.New("object storage is disabled")

// Nop keeps nothing. Used when OBJECT_STORE=none; uploads succeed with an
// empty URL so materials are still created.
type Nop struct{}

var _ core.ObjectClient = Nop{}

func (Nop) UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	return "", nil
}

func (Nop) DeleteFile(ctx context.Context, bucket, key string) error { return nil }

func (Nop) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	return nil, ErrArchiveDisabled
}
