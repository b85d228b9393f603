package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdeck/orderdeck/internal/localstore"
	"github.com/orderdeck/orderdeck/internal/menu"
)

func setupCart(t *testing.T) *Store {
	t.Helper()
	ls, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { ls.Close() })

	s, err := Open(ls, "r1")
	require.NoError(t, err)
	return s
}

func egg() menu.Item {
	return menu.Item{ID: "i-egg", Name: "Egg Rolls", Price: 10.00, IsAvailable: true}
}

func noodles() menu.Item {
	return menu.Item{
		ID:    "i-noodles",
		Name:  "Dan Dan Noodles",
		Price: 11.00,
		Modifiers: []menu.Modifier{{
			Name: "Spice",
			Type: menu.ModifierSingle,
			Options: []menu.Option{
				{Name: "Mild", PriceAdjustment: 0},
				{Name: "Hot", PriceAdjustment: 0.75},
			},
		}},
	}
}

func TestAdd_SameSelectionsIncrementsQuantity(t *testing.T) {
	s := setupCart(t)

	first, err := s.Add(noodles(), menu.Selections{"Spice": {"Hot"}}, 1, "")
	require.NoError(t, err)
	second, err := s.Add(noodles(), menu.Selections{"Spice": {"Hot"}}, 1, "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAdd_DifferentSelectionsCreatesNewLine(t *testing.T) {
	s := setupCart(t)

	_, err := s.Add(noodles(), menu.Selections{"Spice": {"Hot"}}, 1, "")
	require.NoError(t, err)
	_, err = s.Add(noodles(), menu.Selections{"Spice": {"Mild"}}, 1, "")
	require.NoError(t, err)

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.NotEqual(t, lines[0].ID, lines[1].ID)
	assert.InDelta(t, 11.75, lines[0].UnitPrice, 1e-9)
	assert.InDelta(t, 11.00, lines[1].UnitPrice, 1e-9)
}

func TestTotals_ScenarioTenDollarsQtyTwo(t *testing.T) {
	s := setupCart(t)

	_, err := s.Add(egg(), nil, 2, "")
	require.NoError(t, err)

	assert.InDelta(t, 20.00, s.Subtotal(), 1e-9)
	assert.InDelta(t, 1.45, s.Tax(), 1e-9)
	assert.InDelta(t, 21.45, s.Total(), 1e-9)
}

func TestTotals_Invariant(t *testing.T) {
	s := setupCart(t)

	_, err := s.Add(egg(), nil, 3, "")
	require.NoError(t, err)
	_, err = s.Add(noodles(), menu.Selections{"Spice": {"Hot"}}, 2, "extra napkins")
	require.NoError(t, err)

	sub := s.Subtotal()
	assert.InDelta(t, sub+sub*TaxRate, s.Total(), 1e-9)
}

func TestSetQuantity(t *testing.T) {
	s := setupCart(t)

	line, err := s.Add(egg(), nil, 1, "")
	require.NoError(t, err)

	require.NoError(t, s.SetQuantity(line.ID, 5))
	assert.Equal(t, 5, s.Lines()[0].Quantity)

	// Quantity zero removes the line.
	require.NoError(t, s.SetQuantity(line.ID, 0))
	assert.Empty(t, s.Lines())

	assert.ErrorIs(t, s.SetQuantity("missing", 1), ErrLineNotFound)
}

func TestClear(t *testing.T) {
	s := setupCart(t)

	_, err := s.Add(egg(), nil, 2, "")
	require.NoError(t, err)
	require.NoError(t, s.Clear())

	assert.Empty(t, s.Lines())
	assert.InDelta(t, 0, s.Total(), 1e-9)
}

func TestPersistsAcrossOpen(t *testing.T) {
	ls, err := localstore.Open(":memory:")
	require.NoError(t, err)
	defer ls.Close()

	s, err := Open(ls, "r1")
	require.NoError(t, err)
	_, err = s.Add(egg(), nil, 2, "")
	require.NoError(t, err)

	reopened, err := Open(ls, "r1")
	require.NoError(t, err)
	require.Len(t, reopened.Lines(), 1)
	assert.Equal(t, 2, reopened.Lines()[0].Quantity)
}

func TestCartsAreScopedPerRestaurant(t *testing.T) {
	ls, err := localstore.Open(":memory:")
	require.NoError(t, err)
	defer ls.Close()

	a, err := Open(ls, "r1")
	require.NoError(t, err)
	b, err := Open(ls, "r2")
	require.NoError(t, err)

	_, err = a.Add(egg(), nil, 1, "")
	require.NoError(t, err)

	assert.Empty(t, b.Lines())
}

func TestSubscribeNotifiedOnMutation(t *testing.T) {
	s := setupCart(t)

	var notified int
	s.Subscribe(func() { notified++ })

	_, err := s.Add(egg(), nil, 1, "")
	require.NoError(t, err)
	require.NoError(t, s.Clear())

	assert.Equal(t, 2, notified)
}

func TestSubscriberCanReadTheStore(t *testing.T) {
	s := setupCart(t)

	// A view re-rendering from the notification reads the cart back; that
	// must not deadlock on the store's own lock.
	var seen int
	var subtotal float64
	s.Subscribe(func() {
		seen = len(s.Lines())
		subtotal = s.Subtotal()
	})

	_, err := s.Add(egg(), nil, 2, "")
	require.NoError(t, err)

	assert.Equal(t, 1, seen)
	assert.InDelta(t, 20.00, subtotal, 1e-9)

	require.NoError(t, s.Clear())
	assert.Equal(t, 0, seen)
}
