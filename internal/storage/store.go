// Package storage holds attachment payloads. Metadata stays in the
// attachments table; the payload lives behind Store, which has two
// implementations: postgres bytea rows and MinIO objects. Which one is
// active is a deployment choice, not a schema difference.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no payload exists under a key.
var ErrNotFound = errors.New("object not found")

type Store interface {
	// Save consumes r and stores its content under key.
	Save(ctx context.Context, key, contentType string, size int64, r io.Reader) error
	// Open returns a stream of the payload stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
