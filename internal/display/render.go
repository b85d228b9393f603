// Package display renders order lists for the two staff views: the
// kitchen display (active orders, oldest first, what to cook) and the
// front desk (the whole day, read-mostly, who to call).
//
// Rendering is pure - orders and a clock in, text out - so the views are
// golden-tested and the terminal loops just repaint on every refresh.
package display

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/orderdeck/orderdeck/internal/order"
)

// RenderKDS writes the kitchen view: active orders sorted oldest first so
// the kitchen works the queue from the top. Each ticket shows the elapsed
// time and the single legal next status.
func RenderKDS(w io.Writer, orders []order.Order, now time.Time) {
	active := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status.Active() {
			active = append(active, o)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})

	fmt.Fprintf(w, "KITCHEN DISPLAY - %d active\n", len(active))
	fmt.Fprintln(w, strings.Repeat("=", 40))
	if len(active) == 0 {
		fmt.Fprintln(w, "no active orders")
		return
	}

	for _, o := range active {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "[%s] %s · %s\n", o.Number, strings.ToUpper(o.Status.Label()), o.Elapsed(now))
		if name := customerLine(o); name != "" {
			fmt.Fprintf(w, "  %s\n", name)
		}
		for _, item := range o.Items {
			fmt.Fprintf(w, "  %dx %s%s\n", item.Quantity, item.Name, itemSuffix(item))
			if item.SpecialInstructions != "" {
				fmt.Fprintf(w, "     note: %s\n", item.SpecialInstructions)
			}
		}
		if o.SpecialInstructions != "" {
			fmt.Fprintf(w, "  note: %s\n", o.SpecialInstructions)
		}
		if next, ok := o.Status.Next(); ok {
			fmt.Fprintf(w, "  next: %s\n", next.Label())
		}
	}
}

// RenderFrontDesk writes the front desk view: every order, newest first,
// one line each, with totals and the cancel affordance for orders that
// still admit it.
func RenderFrontDesk(w io.Writer, orders []order.Order, now time.Time) {
	sorted := append([]order.Order(nil), orders...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	fmt.Fprintf(w, "FRONT DESK - %d orders\n", len(sorted))
	fmt.Fprintln(w, strings.Repeat("=", 40))
	if len(sorted) == 0 {
		fmt.Fprintln(w, "no orders yet")
		return
	}

	for _, o := range sorted {
		flags := ""
		if o.Status.CanCancel() {
			flags = " [cancellable]"
		}
		fmt.Fprintf(w, "%s %s $%.2f %s · %s%s\n",
			o.Number, strings.ToUpper(o.Status.Label()), o.TotalAmount,
			customerLine(o), o.Elapsed(now), flags)
	}
}

// customerLine formats name and phone for a ticket; either may be absent.
func customerLine(o order.Order) string {
	name := o.CustomerName
	if name == "" && o.Source == order.SourceVoice {
		name = "Phone order"
	}
	phone := ""
	if o.CustomerPhone != "" {
		phone = order.FormatPhone(o.CustomerPhone)
	}
	switch {
	case name != "" && phone != "":
		return name + " " + phone
	case name != "":
		return name
	default:
		return phone
	}
}

// itemSuffix renders size/variant/modifier selections in parentheses.
func itemSuffix(item order.Item) string {
	var parts []string
	if item.Size != "" {
		parts = append(parts, item.Size)
	}
	if item.Variant != "" {
		parts = append(parts, item.Variant)
	}
	for _, name := range sortedKeys(item.ModifierSelections) {
		parts = append(parts, fmt.Sprintf("%s: %s", name, selectionValue(item.ModifierSelections[name])))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// selectionValue flattens a modifier selection value: strings pass
// through, lists join with "+".
func selectionValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		var opts []string
		for _, o := range val {
			opts = append(opts, fmt.Sprint(o))
		}
		return strings.Join(opts, "+")
	case []string:
		return strings.Join(val, "+")
	default:
		return fmt.Sprint(val)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
