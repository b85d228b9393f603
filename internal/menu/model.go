// Package menu holds the read-only menu model and its device-local cache.
//
// Menus are owned by the platform: the client fetches them wholesale, never
// edits them, and caches them per restaurant with a freshness window.
package menu

import (
	"sort"
)

// Modifier selection modes.
const (
	ModifierSingle   = "single"   // pick exactly one option
	ModifierMultiple = "multiple" // pick any number of options
)

// Option is one choice inside a modifier, with its price delta.
type Option struct {
	Name            string  `json:"name"`
	PriceAdjustment float64 `json:"price_adjustment"`
}

// Modifier is a named choice group attached to an item (e.g. Size).
type Modifier struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"` // single | multiple
	Required bool     `json:"required,omitempty"`
	Options  []Option `json:"options"`
}

// Item is a purchasable menu entry.
type Item struct {
	ID          string     `json:"id"`
	CategoryID  string     `json:"category_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Price       float64    `json:"price"`
	IsAvailable bool       `json:"is_available"`
	Modifiers   []Modifier `json:"modifiers,omitempty"`
}

// Category groups items for display, ordered by DisplayOrder.
type Category struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
	Items        []Item `json:"items"`
}

// Menu is the full menu of one restaurant as served by the platform.
type Menu struct {
	RestaurantID string     `json:"restaurant_id"`
	Categories   []Category `json:"categories"`
}

// Selections maps a modifier name to the chosen option names. Single-select
// modifiers carry exactly one entry. Selections participate in cart line
// identity, so they compare by value, order-insensitively.
type Selections map[string][]string

// Equal reports deep equality, ignoring option order within a modifier and
// treating nil and empty as the same.
func (s Selections) Equal(other Selections) bool {
	if len(s) != len(other) {
		return false
	}
	for name, opts := range s {
		otherOpts, ok := other[name]
		if !ok || len(opts) != len(otherOpts) {
			return false
		}
		a := append([]string(nil), opts...)
		b := append([]string(nil), otherOpts...)
		sort.Strings(a)
		sort.Strings(b)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// UnitPrice returns the item's base price plus the adjustments of every
// selected option. Selections naming unknown modifiers or options
// contribute nothing, mirroring the platform's own pricing.
func (i Item) UnitPrice(sel Selections) float64 {
	price := i.Price
	for _, mod := range i.Modifiers {
		chosen, ok := sel[mod.Name]
		if !ok {
			continue
		}
		for _, name := range chosen {
			for _, opt := range mod.Options {
				if opt.Name == name {
					price += opt.PriceAdjustment
					break
				}
			}
			if mod.Type == ModifierSingle {
				break
			}
		}
	}
	return price
}

// FindItem looks an item up by id across all categories.
func (m Menu) FindItem(itemID string) (Item, bool) {
	for _, cat := range m.Categories {
		for _, item := range cat.Items {
			if item.ID == itemID {
				return item, true
			}
		}
	}
	return Item{}, false
}

// FindCategory looks a category up by its slug-insensitive name or id.
func (m Menu) FindCategory(idOrName string) (Category, bool) {
	for _, cat := range m.Categories {
		if cat.ID == idOrName || cat.Name == idOrName {
			return cat, true
		}
	}
	return Category{}, false
}
