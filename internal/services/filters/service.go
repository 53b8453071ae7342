// Package filters provides the named-filter store: CRUD over reusable JQL
// queries, persisted as one ordered list in the key/value store.
package filters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/interfaces"
	"github.com/ternarybob/custos/internal/models"
)

// ErrFilterNotFound is returned when no filter matches the requested name
var ErrFilterNotFound = errors.New("filter not found")

// Service owns the in-memory filter list; the storage layer is its durable
// mirror, written through on every mutation. All name matching is
// case-insensitive.
type Service struct {
	mu      sync.Mutex
	storage interfaces.FilterStorage
	filters []models.Filter
	logger  arbor.ILogger
}

// NewService creates the filter service and loads any persisted list. The
// load happens synchronously here, before the service is handed to anyone,
// so no write can race the initial load.
func NewService(storage interfaces.FilterStorage, logger arbor.ILogger) (*Service, error) {
	s := &Service{
		storage: storage,
		logger:  logger,
	}

	persisted, err := storage.Load(context.Background())
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			// Nothing persisted yet; the list stays empty and is not
			// written until the first Add.
			logger.Debug().Msg("No persisted filters found, starting empty")
			return s, nil
		}
		return nil, fmt.Errorf("failed to load filters: %w", err)
	}

	s.filters = persisted
	logger.Info().Int("count", len(persisted)).Msg("Loaded persisted filters")
	return s, nil
}

// Add appends a filter and persists the list. Uniqueness is not enforced
// here; Save is the upsert entry point callers should normally use.
func (s *Service) Add(ctx context.Context, filter models.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters = append(s.filters, filter)
	if err := s.persist(ctx); err != nil {
		return err
	}

	s.logger.Info().Str("name", filter.Name).Msg("Added filter")
	return nil
}

// Delete removes every filter whose name matches case-insensitively and
// persists the result. Returns true if anything was removed.
func (s *Service) Delete(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.deleteLocked(ctx, name)
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Info().Str("name", name).Msg("Deleted filter")
	}
	return removed, nil
}

func (s *Service) deleteLocked(ctx context.Context, name string) (bool, error) {
	kept := s.filters[:0]
	removed := false
	for _, f := range s.filters {
		if strings.EqualFold(f.Name, name) {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	s.filters = kept

	if err := s.persist(ctx); err != nil {
		return removed, err
	}
	return removed, nil
}

// Save upserts a filter: any existing filter with the same name is removed
// first, then the new one is appended and the list persisted.
func (s *Service) Save(ctx context.Context, name, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.deleteLocked(ctx, name); err != nil {
		return err
	}

	s.filters = append(s.filters, models.Filter{Name: name, Query: query})
	if err := s.persist(ctx); err != nil {
		return err
	}

	s.logger.Info().Str("name", name).Msg("Saved filter")
	return nil
}

// Get returns the first filter whose name matches case-insensitively, or
// ErrFilterNotFound.
func (s *Service) Get(name string) (models.Filter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.filters {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return models.Filter{}, ErrFilterNotFound
}

// All returns a copy of the filter list in insertion order.
func (s *Service) All() []models.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Filter, len(s.filters))
	copy(out, s.filters)
	return out
}

func (s *Service) persist(ctx context.Context) error {
	if err := s.storage.Save(ctx, s.filters); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist filter list")
		return fmt.Errorf("failed to persist filters: %w", err)
	}
	return nil
}
