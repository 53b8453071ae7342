package filters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/interfaces"
	"github.com/ternarybob/custos/internal/models"
)

// memoryStorage is an in-memory FilterStorage for tests
type memoryStorage struct {
	filters []models.Filter
	written bool
	saves   int
}

func (m *memoryStorage) Load(ctx context.Context) ([]models.Filter, error) {
	if !m.written {
		return nil, interfaces.ErrNotFound
	}
	out := make([]models.Filter, len(m.filters))
	copy(out, m.filters)
	return out, nil
}

func (m *memoryStorage) Save(ctx context.Context, filters []models.Filter) error {
	m.filters = make([]models.Filter, len(filters))
	copy(m.filters, filters)
	m.written = true
	m.saves++
	return nil
}

func newTestService(t *testing.T, storage interfaces.FilterStorage) *Service {
	t.Helper()
	s, err := NewService(storage, arbor.NewLogger())
	require.NoError(t, err)
	return s
}

func TestGetIsCaseInsensitive(t *testing.T) {
	s := newTestService(t, &memoryStorage{})
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, models.Filter{Name: "MyFilter", Query: "project = X"}))

	upper, err := s.Get("MYFILTER")
	require.NoError(t, err)
	lower, err := s.Get("myfilter")
	require.NoError(t, err)

	assert.Equal(t, upper, lower)
	assert.Equal(t, "MyFilter", upper.Name)
	assert.Equal(t, "project = X", upper.Query)
}

func TestGetMissingFilter(t *testing.T) {
	s := newTestService(t, &memoryStorage{})

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrFilterNotFound)
}

func TestDeleteRemovesFilter(t *testing.T) {
	s := newTestService(t, &memoryStorage{})
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, models.Filter{Name: "keep", Query: "q1"}))
	require.NoError(t, s.Add(ctx, models.Filter{Name: "drop", Query: "q2"}))

	removed, err := s.Delete(ctx, "DROP")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = s.Get("drop")
	assert.ErrorIs(t, err, ErrFilterNotFound)

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "keep", all[0].Name)
}

func TestDeleteMissingFilter(t *testing.T) {
	s := newTestService(t, &memoryStorage{})

	removed, err := s.Delete(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSaveOverwritesSameName(t *testing.T) {
	s := newTestService(t, &memoryStorage{})
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "myfilter", "project = X"))
	require.NoError(t, s.Save(ctx, "MyFilter", "project = Y"))

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "MyFilter", all[0].Name)
	assert.Equal(t, "project = Y", all[0].Query)
}

func TestFirstMatchWinsWhenDuplicated(t *testing.T) {
	s := newTestService(t, &memoryStorage{})
	ctx := context.Background()

	// Add does not enforce uniqueness; Get resolves to insertion order.
	require.NoError(t, s.Add(ctx, models.Filter{Name: "dup", Query: "first"}))
	require.NoError(t, s.Add(ctx, models.Filter{Name: "DUP", Query: "second"}))

	got, err := s.Get("dup")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Query)
}

func TestListSurvivesReload(t *testing.T) {
	storage := &memoryStorage{}
	ctx := context.Background()

	s := newTestService(t, storage)
	require.NoError(t, s.Add(ctx, models.Filter{Name: "a", Query: "q1"}))
	require.NoError(t, s.Add(ctx, models.Filter{Name: "b", Query: "q2"}))

	// A fresh service over the same storage sees the persisted list.
	reloaded := newTestService(t, storage)
	all := reloaded.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "b", all[1].Name)
}

func TestEmptyStoreNotWrittenUntilFirstAdd(t *testing.T) {
	storage := &memoryStorage{}
	s := newTestService(t, storage)

	assert.False(t, storage.written)
	assert.Empty(t, s.All())

	require.NoError(t, s.Add(context.Background(), models.Filter{Name: "a", Query: "q"}))
	assert.True(t, storage.written)
}

// failingStorage always fails to persist
type failingStorage struct {
	memoryStorage
}

func (f *failingStorage) Save(ctx context.Context, filters []models.Filter) error {
	return errors.New("disk full")
}

func TestAddSurfacesPersistError(t *testing.T) {
	s := newTestService(t, &failingStorage{})

	err := s.Add(context.Background(), models.Filter{Name: "a", Query: "q"})
	assert.Error(t, err)
}
