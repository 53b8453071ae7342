package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/custos/internal/models"
)

// ErrNotFound is returned when a stored record does not exist
var ErrNotFound = errors.New("record not found")

// FilterStorage persists the ordered filter list as a single record under a
// fixed key. The filter service owns the only in-memory copy; this is its
// durable mirror, written through on every mutation.
type FilterStorage interface {
	// Load returns the persisted filter list, or ErrNotFound if nothing
	// has been written yet
	Load(ctx context.Context) ([]models.Filter, error)

	// Save replaces the persisted filter list
	Save(ctx context.Context, filters []models.Filter) error
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	FilterStorage() FilterStorage

	// RunValueLogGC triggers one round of Badger value-log garbage collection
	RunValueLogGC() error

	Close() error
}
