package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleItem() Item {
	return Item{
		ID:          "item-1",
		Name:        "Kung Pao Chicken",
		Price:       12.50,
		IsAvailable: true,
		Modifiers: []Modifier{
			{
				Name: "Size",
				Type: ModifierSingle,
				Options: []Option{
					{Name: "Small", PriceAdjustment: 0},
					{Name: "Large", PriceAdjustment: 3.00},
				},
			},
			{
				Name: "Add-ons",
				Type: ModifierMultiple,
				Options: []Option{
					{Name: "Extra Sauce", PriceAdjustment: 0.50},
					{Name: "Peanuts", PriceAdjustment: 1.00},
				},
			},
		},
	}
}

func TestItem_UnitPrice(t *testing.T) {
	item := sampleItem()

	assert.InDelta(t, 12.50, item.UnitPrice(nil), 1e-9)
	assert.InDelta(t, 15.50, item.UnitPrice(Selections{"Size": {"Large"}}), 1e-9)
	assert.InDelta(t, 17.00, item.UnitPrice(Selections{
		"Size":    {"Large"},
		"Add-ons": {"Extra Sauce", "Peanuts"},
	}), 1e-9)
}

func TestItem_UnitPrice_UnknownSelectionsIgnored(t *testing.T) {
	item := sampleItem()

	assert.InDelta(t, 12.50, item.UnitPrice(Selections{"Spice": {"Hot"}}), 1e-9)
	assert.InDelta(t, 12.50, item.UnitPrice(Selections{"Size": {"Gigantic"}}), 1e-9)
}

func TestItem_UnitPrice_SingleTakesFirstOnly(t *testing.T) {
	item := sampleItem()

	// A malformed multi-valued single-select counts only the first choice.
	assert.InDelta(t, 15.50, item.UnitPrice(Selections{"Size": {"Large", "Small"}}), 1e-9)
}

func TestSelections_Equal(t *testing.T) {
	a := Selections{"Size": {"Large"}, "Add-ons": {"Peanuts", "Extra Sauce"}}
	b := Selections{"Add-ons": {"Extra Sauce", "Peanuts"}, "Size": {"Large"}}
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))

	assert.False(t, a.Equal(Selections{"Size": {"Small"}}))
	assert.False(t, a.Equal(Selections{"Size": {"Large"}}))
	assert.True(t, Selections{}.Equal(nil))
}

func TestMenu_FindItem(t *testing.T) {
	m := Menu{Categories: []Category{
		{ID: "c1", Items: []Item{{ID: "i1", Name: "Spring Rolls"}}},
		{ID: "c2", Items: []Item{{ID: "i2", Name: "Fried Rice"}}},
	}}

	item, ok := m.FindItem("i2")
	assert.True(t, ok)
	assert.Equal(t, "Fried Rice", item.Name)

	_, ok = m.FindItem("nope")
	assert.False(t, ok)
}
