// Package clientcart is the shopper-local cart: book snapshots kept in a
// key/value Storage, independent of the server-side cart.
package clientcart

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Baryonic/aida/pkg/apperr"
	"github.com/Baryonic/aida/pkg/models"
	"github.com/Baryonic/aida/pkg/money"

	"github.com/shopspring/decimal"
)

// StorageKey is the key the item list is stored under.
const StorageKey = "aida_cart"

// Item is a snapshot of a book taken when it was first added. Later price
// changes in the catalog are not reflected.
type Item struct {
	ID         uint            `json:"id"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	CoverImage *string         `json:"cover_image"`
	Slug       string          `json:"slug"`
	Quantity   int             `json:"quantity"`
}

// Observer is called after every successful mutation with the new items.
type Observer func(items []Item)

type Cart struct {
	mu        sync.Mutex
	storage   Storage
	items     []Item
	observers map[int]Observer
	nextID    int
}

// New loads the cart from storage. A missing or unreadable value starts
// an empty cart.
func New(storage Storage) *Cart {
	c := &Cart{storage: storage, observers: make(map[int]Observer)}
	c.items = load(storage)
	return c
}

func load(storage Storage) []Item {
	raw, ok, err := storage.Get(StorageKey)
	if err != nil || !ok {
		return []Item{}
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		return []Item{}
	}
	return items
}

func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.items)
}

// Count is the number of copies in the cart, not the number of titles.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]money.Line, len(c.items))
	for i, it := range c.items {
		lines[i] = money.Line{Price: it.Price, Quantity: it.Quantity}
	}
	return money.Total(lines)
}

// Add increments book's quantity, or snapshots it with quantity 1.
func (c *Cart) Add(book models.Book) error {
	var full bool
	err := c.mutate(func(items []Item) ([]Item, bool) {
		for i := range items {
			if items[i].ID == book.ID {
				if items[i].Quantity >= models.MaxCartQuantity {
					full = true
					return items, false
				}
				items[i].Quantity++
				return items, true
			}
		}
		return append(items, Item{
			ID:         book.ID,
			Title:      book.Title,
			Price:      book.Price,
			CoverImage: book.CoverImage,
			Slug:       book.Slug,
			Quantity:   1,
		}), true
	})
	if err == nil && full {
		return errTooMany()
	}
	return err
}

// SetQuantity rejects qty outside 1..models.MaxCartQuantity without
// touching the cart. A book that is not in the cart is ignored.
func (c *Cart) SetQuantity(bookID uint, qty int) error {
	if qty < 1 {
		return apperr.Validation("quantity must be at least 1")
	}
	if qty > models.MaxCartQuantity {
		return errTooMany()
	}
	return c.mutate(func(items []Item) ([]Item, bool) {
		for i := range items {
			if items[i].ID == bookID {
				items[i].Quantity = qty
				return items, true
			}
		}
		return items, false
	})
}

func (c *Cart) Remove(bookID uint) error {
	return c.mutate(func(items []Item) ([]Item, bool) {
		for i := range items {
			if items[i].ID == bookID {
				return append(items[:i], items[i+1:]...), true
			}
		}
		return items, false
	})
}

func (c *Cart) Clear() error {
	return c.mutate(func([]Item) ([]Item, bool) {
		return []Item{}, true
	})
}

// Subscribe registers fn and returns a function that removes it.
func (c *Cart) Subscribe(fn Observer) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// mutate applies fn to a copy of the items, persists the result and only
// then makes it visible. Observers run synchronously once the lock is
// released.
func (c *Cart) mutate(fn func([]Item) ([]Item, bool)) error {
	c.mu.Lock()
	next, changed := fn(clone(c.items))
	if !changed {
		c.mu.Unlock()
		return nil
	}

	raw, err := json.Marshal(next)
	if err == nil {
		err = c.storage.Set(StorageKey, string(raw))
	}
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("persist cart: %w", err)
	}
	c.items = next

	snapshot := clone(next)
	observers := make([]Observer, 0, len(c.observers))
	for _, o := range c.observers {
		observers = append(observers, o)
	}
	c.mu.Unlock()

	for _, o := range observers {
		o(clone(snapshot))
	}
	return nil
}

func clone(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func errTooMany() error {
	return apperr.Validation(fmt.Sprintf("quantity must be at most %d", models.MaxCartQuantity))
}
