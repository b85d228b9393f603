// Package cart is the client-local cart: a mutable list of selected menu
// items persisted to the device store, one cart per restaurant. It exists
// entirely on this side of the API; checkout hands its lines to the
// platform and clears it.
//
// The store is explicit - callers hold a *Store and pass it where needed.
// Views subscribe for change notification instead of sharing a singleton.
package cart

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/orderdeck/orderdeck/internal/localstore"
	"github.com/orderdeck/orderdeck/internal/menu"
)

// TaxRate is the fixed sales tax applied at checkout (7.25%).
const TaxRate = 0.0725

// keyPrefix namespaces cart entries in the device store.
const keyPrefix = "cart:"

// ErrLineNotFound is returned when updating or removing an unknown line.
var ErrLineNotFound = errors.New("cart: line not found")

// Line is one cart entry. Identity is the composite of the menu item and
// the exact modifier selections, so the same dish with different options
// stays on separate lines. ID is generated client-side.
type Line struct {
	ID                  string          `json:"id"`
	MenuItemID          string          `json:"menu_item_id"`
	Name                string          `json:"name"`
	UnitPrice           float64         `json:"unit_price"`
	Quantity            int             `json:"quantity"`
	Selections          menu.Selections `json:"modifier_selections,omitempty"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
}

// Total is the line's extended price.
func (l Line) Total() float64 { return l.UnitPrice * float64(l.Quantity) }

// Store is the persistent cart for one restaurant.
type Store struct {
	mu           sync.Mutex
	store        *localstore.Store
	restaurantID string
	lines        []Line
	subs         []func()
}

// Open loads the cart for restaurantID from the device store. A missing
// entry is an empty cart.
func Open(store *localstore.Store, restaurantID string) (*Store, error) {
	s := &Store{store: store, restaurantID: restaurantID}
	_, err := store.Get(keyPrefix+restaurantID, &s.lines)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return s, nil
}

// Subscribe registers fn to run after every mutation.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Add puts quantity of item with the given selections into the cart.
// An existing line with the same item and deep-equal selections has its
// quantity incremented; otherwise a new line is appended.
func (s *Store) Add(item menu.Item, sel menu.Selections, quantity int, instructions string) (Line, error) {
	if quantity < 1 {
		quantity = 1
	}
	var line Line
	err := s.mutate(func() error {
		for i := range s.lines {
			if s.lines[i].MenuItemID == item.ID && s.lines[i].Selections.Equal(sel) {
				s.lines[i].Quantity += quantity
				if instructions != "" {
					s.lines[i].SpecialInstructions = instructions
				}
				line = s.lines[i]
				return nil
			}
		}

		line = Line{
			ID:                  uuid.NewString(),
			MenuItemID:          item.ID,
			Name:                item.Name,
			UnitPrice:           item.UnitPrice(sel),
			Quantity:            quantity,
			Selections:          sel,
			SpecialInstructions: instructions,
		}
		s.lines = append(s.lines, line)
		return nil
	})
	return line, err
}

// SetQuantity updates a line by id. Quantity 0 removes the line.
func (s *Store) SetQuantity(lineID string, quantity int) error {
	return s.mutate(func() error {
		for i := range s.lines {
			if s.lines[i].ID != lineID {
				continue
			}
			if quantity <= 0 {
				s.lines = append(s.lines[:i], s.lines[i+1:]...)
			} else {
				s.lines[i].Quantity = quantity
			}
			return nil
		}
		return ErrLineNotFound
	})
}

// Remove deletes a line by id.
func (s *Store) Remove(lineID string) error {
	return s.SetQuantity(lineID, 0)
}

// Clear empties the cart, e.g. after a successful checkout.
func (s *Store) Clear() error {
	return s.mutate(func() error {
		s.lines = nil
		return nil
	})
}

// Lines returns a copy of the cart's lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines...)
}

// Subtotal, Tax, Total and Count are pure derivations recomputed on every
// read; nothing is cached.

// Subtotal is the sum of line totals.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, l := range s.lines {
		sum += l.Total()
	}
	return sum
}

// Tax is Subtotal times the fixed rate.
func (s *Store) Tax() float64 { return s.Subtotal() * TaxRate }

// Total is Subtotal plus Tax.
func (s *Store) Total() float64 {
	sub := s.Subtotal()
	return sub + sub*TaxRate
}

// Count is the total item quantity across lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// mutate runs fn under the lock, persists the result, and then runs the
// subscribers with the lock released so a subscriber can read the store
// back. A failed mutation neither persists nor notifies.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	err := s.store.Put(keyPrefix+s.restaurantID, s.lines)
	subs := append([]func(){}, s.subs...)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	for _, cb := range subs {
		cb()
	}
	return nil
}
