package model

import (
	"context"
	"io"
)

// Storage writes opaque objects to durable object storage.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}
