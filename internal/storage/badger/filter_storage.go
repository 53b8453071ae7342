package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/interfaces"
	"github.com/ternarybob/custos/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// filterListKey is the fixed key the ordered filter list is stored under.
// The whole list lives in one record; the filter service owns ordering and
// name matching.
const filterListKey = "filters"

// FilterStorage implements the FilterStorage interface for Badger
type FilterStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewFilterStorage creates a new FilterStorage instance
func NewFilterStorage(db *BadgerDB, logger arbor.ILogger) interfaces.FilterStorage {
	return &FilterStorage{
		db:     db,
		logger: logger,
	}
}

// Load returns the persisted filter list
func (s *FilterStorage) Load(ctx context.Context) ([]models.Filter, error) {
	var list models.FilterList
	err := s.db.Store().Get(filterListKey, &list)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load filter list: %w", err)
	}

	return list.Filters, nil
}

// Save replaces the persisted filter list
func (s *FilterStorage) Save(ctx context.Context, filters []models.Filter) error {
	list := models.FilterList{
		Key:     filterListKey,
		Filters: filters,
	}

	if err := s.db.Store().Upsert(filterListKey, &list); err != nil {
		return fmt.Errorf("failed to save filter list: %w", err)
	}

	s.logger.Debug().Int("count", len(filters)).Msg("Persisted filter list")
	return nil
}
