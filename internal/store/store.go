// Package store provides the durable garden collections. Each collection
// lives in a single JSON document; the in-process cache is the source of
// truth once loaded, and every mutation rewrites the whole document. A
// failed write leaves the cache ahead of disk; callers see the error and
// must treat record state as possibly inconsistent with storage.
package store

import (
	"context"

	"memgarden/internal/model"
)

// BlobRemover deletes a stored media blob by its relative path.
// Satisfied by *media.BlobStore.
type BlobRemover interface {
	Delete(relPath string) (bool, error)
}

// MemoryStore is the durable collection of memory records.
type MemoryStore interface {
	// Add persists a new memory. Rejects an empty or whitespace-only
	// title with a ValidationError before anything reaches disk.
	Add(ctx context.Context, m *model.Memory) (*model.Memory, error)

	// Update overwrites an existing memory by id. ModifiedAt is
	// server-assigned regardless of the caller-supplied value.
	// Returns ErrNotFound for an unknown id.
	Update(ctx context.Context, m *model.Memory) (*model.Memory, error)

	// Delete removes a memory and best-effort deletes its media blobs.
	// Deleting an unknown id returns false without side effects.
	Delete(ctx context.Context, id string) (bool, error)

	// GetByID returns a memory or ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.Memory, error)

	// GetAll returns every memory sorted by CreatedAt descending.
	// The ordering is an API guarantee, not a storage one.
	GetAll(ctx context.Context) ([]model.Memory, error)

	// GetByAnchor returns the memories owned by the given anchor.
	GetByAnchor(ctx context.Context, anchorID string) ([]model.Memory, error)
}

// AnchorStore is the durable collection of anchor references. Same
// operational shape as MemoryStore, keyed on anchor id, with no cascade
// and no ordering guarantee.
type AnchorStore interface {
	Add(ctx context.Context, a *model.AnchorRef) (*model.AnchorRef, error)
	Update(ctx context.Context, a *model.AnchorRef) (*model.AnchorRef, error)
	Delete(ctx context.Context, anchorID string) (bool, error)
	GetByID(ctx context.Context, anchorID string) (*model.AnchorRef, error)
	GetAll(ctx context.Context) ([]model.AnchorRef, error)
}
