package post

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no document exists at the path.
	ErrNotFound = errors.New("post not found")

	// ErrExists is returned by a blind create when the path is taken.
	ErrExists = errors.New("post already exists")

	// ErrVersionConflict is returned when the expected version no longer
	// matches the stored document. The caller must re-read and retry;
	// the store never resolves the conflict silently.
	ErrVersionConflict = errors.New("version conflict")
)

// Store is the optimistic-concurrency contract over the content repository.
// Versions are content hashes returned by Read and required by Write and
// Delete as compare-and-swap preconditions.
type Store interface {
	Read(ctx context.Context, path string) (*Document, string, error)

	// Write stores doc at path. An empty expectedVersion means blind
	// create, which fails with ErrExists if the path is taken; otherwise
	// the stored version must match or the write fails with
	// ErrVersionConflict.
	Write(ctx context.Context, path string, doc *Document, expectedVersion string) (string, error)

	// Delete removes the document under the same CAS discipline.
	Delete(ctx context.Context, path string, expectedVersion string) error
}
