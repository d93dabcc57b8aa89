package clientcart

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Baryonic/aida/pkg/apperr"
	"github.com/Baryonic/aida/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func book(id uint, slug, price string) models.Book {
	return models.Book{ID: id, Title: slug, Slug: slug, Price: decimal.RequireFromString(price)}
}

type failingStorage struct{ *MemoryStorage }

func (f *failingStorage) Set(string, string) error { return errors.New("quota exceeded") }

func TestAddSnapshotsAndIncrements(t *testing.T) {
	c := New(NewMemoryStorage())

	require.NoError(t, c.Add(book(1, "the-whispering-woods", "14.99")))
	require.NoError(t, c.Add(book(1, "the-whispering-woods", "99.00")))
	require.NoError(t, c.Add(book(2, "the-garden-of-words", "13.99")))

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("14.99")))
	assert.Equal(t, 3, c.Count())
	assert.Equal(t, "43.97", c.Total().StringFixed(2))
}

func TestSetQuantity(t *testing.T) {
	c := New(NewMemoryStorage())
	require.NoError(t, c.Add(book(1, "a", "1.00")))

	require.NoError(t, c.SetQuantity(1, 5))
	assert.Equal(t, 5, c.Count())

	err := c.SetQuantity(1, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 5, c.Count())

	require.NoError(t, c.SetQuantity(42, 3))
	assert.Len(t, c.Items(), 1)
}

func TestQuantityCap(t *testing.T) {
	c := New(NewMemoryStorage())
	require.NoError(t, c.Add(book(1, "a", "1.00")))

	err := c.SetQuantity(1, models.MaxCartQuantity+1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 1, c.Count())

	require.NoError(t, c.SetQuantity(1, models.MaxCartQuantity))
	calls := 0
	unsubscribe := c.Subscribe(func([]Item) { calls++ })
	defer unsubscribe()

	err = c.Add(book(1, "a", "1.00"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, models.MaxCartQuantity, c.Count())
	assert.Zero(t, calls)
}

func TestRemoveAndClear(t *testing.T) {
	c := New(NewMemoryStorage())
	require.NoError(t, c.Add(book(1, "a", "1.00")))
	require.NoError(t, c.Add(book(2, "b", "2.00")))

	require.NoError(t, c.Remove(1))
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, uint(2), items[0].ID)

	require.NoError(t, c.Clear())
	assert.Empty(t, c.Items())
	assert.Zero(t, c.Count())
	assert.True(t, c.Total().IsZero())
}

func TestObserversRunBeforeReturn(t *testing.T) {
	c := New(NewMemoryStorage())

	var seen [][]Item
	unsubscribe := c.Subscribe(func(items []Item) {
		seen = append(seen, items)
	})

	require.NoError(t, c.Add(book(1, "a", "1.00")))
	require.Len(t, seen, 1)
	assert.Equal(t, 1, seen[0][0].Quantity)

	require.NoError(t, c.SetQuantity(1, 3))
	require.Len(t, seen, 2)
	assert.Equal(t, 3, seen[1][0].Quantity)

	require.NoError(t, c.SetQuantity(9, 3))
	assert.Len(t, seen, 2)

	unsubscribe()
	require.NoError(t, c.Clear())
	assert.Len(t, seen, 2)
}

func TestObserverMayReadCart(t *testing.T) {
	c := New(NewMemoryStorage())
	var count int
	c.Subscribe(func([]Item) { count = c.Count() })

	require.NoError(t, c.Add(book(1, "a", "1.00")))
	assert.Equal(t, 1, count)
}

func TestPersistFailureLeavesCartUnchanged(t *testing.T) {
	c := New(&failingStorage{NewMemoryStorage()})
	notified := false
	c.Subscribe(func([]Item) { notified = true })

	assert.Error(t, c.Add(book(1, "a", "1.00")))
	assert.Empty(t, c.Items())
	assert.False(t, notified)
}

func TestReloadFromStorage(t *testing.T) {
	store := NewMemoryStorage()
	c := New(store)
	require.NoError(t, c.Add(book(1, "a", "14.99")))
	require.NoError(t, c.Add(book(1, "a", "14.99")))

	reloaded := New(store)
	items := reloaded.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("14.99")))
}

func TestUnparseableStorageIsEmpty(t *testing.T) {
	store := NewMemoryStorage()
	require.NoError(t, store.Set(StorageKey, "{not json"))

	c := New(store)
	assert.Empty(t, c.Items())
	require.NoError(t, c.Add(book(1, "a", "1.00")))
	assert.Equal(t, 1, c.Count())
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cart.json")
	store := NewFileStorage(path)

	_, ok, err := store.Get(StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)

	c := New(store)
	require.NoError(t, c.Add(book(7, "the-paper-boat", "12.50")))

	reloaded := New(NewFileStorage(path))
	items := reloaded.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "the-paper-boat", items[0].Slug)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".cart-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
