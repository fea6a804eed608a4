package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no blob with the given name exists.
var ErrNotFound = errors.New("blob not found")

// Store abstracts a remote flat-file store addressed by file name.
// Calls are atomic per-operation and non-transactional; Put replaces
// the whole blob (update-or-create).
// Implementations must be safe for concurrent use.
type Store interface {
	List(ctx context.Context, name string) ([]string, error)
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte, mimeType string) (string, error)
}
