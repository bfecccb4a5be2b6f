// Package storage abstracts the object store holding .skill artifacts
// and their detached signatures.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no object exists at the requested key.
var ErrNotFound = errors.New("object not found")

// BlobStore stores artifact and signature bytes under registry keys of
// the form {namespace}/{name}/{version}/{sha256}.skill|.sig.
type BlobStore interface {
	// Put writes data at key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte) error
	// Get reads the object at key, returning ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns all keys under prefix. Used by orphan-blob GC.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes the object at key; deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}
