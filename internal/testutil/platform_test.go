package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdeck/orderdeck/internal/api"
	"github.com/orderdeck/orderdeck/internal/menu"
	"github.com/orderdeck/orderdeck/internal/order"
	"github.com/orderdeck/orderdeck/internal/session"
)

func TestPlatformLoginAndMe(t *testing.T) {
	p := NewPlatform(t)
	p.AddUser(session.User{Username: "ana", Role: session.RoleRestaurantAdmin}, "secret")

	client := api.New(p.URL())
	res, err := client.Login(context.Background(), "ana", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	me, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ana", me.Username)
}

func TestPlatformRejectsBadPassword(t *testing.T) {
	p := NewPlatform(t)
	p.AddUser(session.User{Username: "ana", Role: session.RoleKDS}, "secret")

	client := api.New(p.URL())
	_, err := client.Login(context.Background(), "ana", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
}

func TestPlatformOrderFlow(t *testing.T) {
	p := NewPlatform(t)
	rest := p.AddRestaurant("Golden Dragon", "+14155550100")
	p.SetMenu(rest.ID, menu.Menu{Categories: []menu.Category{{
		Name:  "Mains",
		Items: []menu.Item{{ID: "i1", Name: "Fried Rice", Price: 10, IsAvailable: true}},
	}}})

	client := api.New(p.URL(), api.WithAPIKey(p.APIKey))

	created, err := client.CreateOrder(context.Background(), api.Checkout{
		RestaurantID:  rest.ID,
		CustomerPhone: "+14155550134",
		Items:         []api.CheckoutItem{{MenuItemID: "i1", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, created.Status)
	assert.InDelta(t, 21.45, created.TotalAmount, 0.001)

	require.NoError(t, client.UpdateOrderStatus(context.Background(), created.ID, order.StatusPreparing))

	listed, err := client.ListOrders(context.Background(), rest.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, order.StatusPreparing, listed[0].Status)

	require.NoError(t, client.CancelOrder(context.Background(), created.ID, "customer called"))
	assert.Equal(t, "customer called", p.CancelReasons[created.ID])
}
