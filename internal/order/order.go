// Package order defines the order model shared by the displays, the API
// client, and the refresh coordinator, together with the status lifecycle.
//
// Orders are created by the external service at checkout and mutated only
// through status-transition calls; the client never edits one in place.
// Completed and cancelled orders are filtered out of active views, never
// deleted.
package order

import (
	"fmt"
	"strings"
	"time"
)

// Source distinguishes how an order entered the system.
const (
	SourceVoice       = "voice"
	SourceSelfService = "self_service"
)

// Item is one line of an order as stored by the platform.
// Voice orders carry size/pieces/variant fields; self-service orders carry
// the modifier selections that produced the unit price.
type Item struct {
	Name                string            `json:"item_name"`
	Quantity            int               `json:"quantity"`
	Size                string            `json:"size,omitempty"`
	Variant             string            `json:"variant,omitempty"`
	Price               float64           `json:"price"`
	ModifierSelections  map[string]any    `json:"modifier_selections,omitempty"`
	SpecialInstructions string            `json:"special_instructions,omitempty"`
}

// Order is the authoritative record fetched from the platform.
type Order struct {
	ID                  string    `json:"id"`
	Number              string    `json:"order_number"`
	RestaurantID        string    `json:"restaurant_id"`
	CustomerName        string    `json:"customer_name,omitempty"`
	CustomerPhone       string    `json:"customer_phone,omitempty"`
	Status              Status    `json:"status"`
	TotalAmount         float64   `json:"total_amount"`
	SpecialInstructions string    `json:"special_instructions,omitempty"`
	Source              string    `json:"order_source,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	Items               []Item    `json:"items"`
}

// Elapsed formats the age of the order for display, relative to now.
// Under a minute renders as "<1m"; beyond an hour as "1h05m".
func (o Order) Elapsed(now time.Time) string {
	d := now.Sub(o.CreatedAt)
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return "<1m"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatPhone renders a stored +1XXXXXXXXXX number as (XXX) XXX-XXXX.
// Anything that is not a ten-digit US number comes back unchanged.
func FormatPhone(phone string) string {
	digits := strings.TrimPrefix(strings.TrimPrefix(phone, "+1"), "1")
	if len(digits) != 10 {
		return phone
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return phone
		}
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}
