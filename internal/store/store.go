// Package store defines the persistence interface for derived entity
// state. Implementations include PostgreSQL (source of truth), Redis
// (read-through cache), and in-memory (for testing). Entities are stored
// as JSON blobs keyed by kind and id, which keeps the schema stable while
// the entity shapes evolve.
package store

import (
	"context"
	"errors"

	"PerpIndexer/internal/entity"
)

// ErrNotFound is returned by Load when no entity exists under the key.
// Callers that implement get-or-create semantics check for it and build
// the kind's zero-default entity instead.
var ErrNotFound = errors.New("store: entity not found")

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer. Save overwrites any previous
// value under the same kind and key, which is what makes event replay
// idempotent at the storage level.
type Store interface {
	// Load returns the JSON blob for the entity, or ErrNotFound.
	Load(ctx context.Context, kind entity.Kind, key string) ([]byte, error)

	// Save upserts the JSON blob under kind and key.
	Save(ctx context.Context, kind entity.Kind, key string, data []byte) error

	// Remove deletes the entity. Removing an absent entity is not an error.
	Remove(ctx context.Context, kind entity.Kind, key string) error
}
