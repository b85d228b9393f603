package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/orderdeck/orderdeck/internal/menu"
	"github.com/orderdeck/orderdeck/internal/order"
)

// ListOrders returns a restaurant's orders for the displays, newest first.
// API-key protected; statuses are normalized on decode so the displays
// never see a raw string.
func (c *Client) ListOrders(ctx context.Context, restaurantID string) ([]order.Order, error) {
	var out []order.Order
	path := "/api/orders?restaurant_id=" + url.QueryEscape(restaurantID)
	if err := c.do(ctx, http.MethodGet, path, authAPIKey, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Status = order.ParseStatus(string(out[i].Status))
	}
	return out, nil
}

// GetOrder fetches one order with its items.
func (c *Client) GetOrder(ctx context.Context, orderID string) (order.Order, error) {
	var out order.Order
	path := "/api/orders/" + url.PathEscape(orderID)
	if err := c.do(ctx, http.MethodGet, path, authAPIKey, nil, &out); err != nil {
		return order.Order{}, err
	}
	out.Status = order.ParseStatus(string(out.Status))
	return out, nil
}

// UpdateOrderStatus moves an order to status. The platform validates the
// transition; the displays only ever send the single legal next status.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status order.Status) error {
	body := map[string]string{"status": string(status)}
	path := fmt.Sprintf("/api/orders/%s/status", url.PathEscape(orderID))
	return c.do(ctx, http.MethodPost, path, authAPIKey, body, nil)
}

// CancelOrder cancels a non-completed order, optionally carrying a reason
// that the platform appends to the order's notes. Front desk only.
func (c *Client) CancelOrder(ctx context.Context, orderID, reason string) error {
	body := map[string]string{"reason": reason}
	path := fmt.Sprintf("/api/orders/%s/cancel", url.PathEscape(orderID))
	return c.do(ctx, http.MethodPost, path, authAPIKey, body, nil)
}

// CheckoutItem is one cart line in a self-service order submission.
type CheckoutItem struct {
	MenuItemID          string          `json:"menu_item_id"`
	Quantity            int             `json:"quantity"`
	ModifierSelections  menu.Selections `json:"modifier_selections,omitempty"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
}

// Checkout is a self-service order submission. Pricing happens server-side
// from the menu item ids and selections; the client's totals are display
// only.
type Checkout struct {
	RestaurantID        string         `json:"restaurant_id"`
	CustomerName        string         `json:"customer_name,omitempty"`
	CustomerPhone       string         `json:"customer_phone"`
	Items               []CheckoutItem `json:"items"`
	SpecialInstructions string         `json:"special_instructions,omitempty"`
}

// CreateOrder submits a self-service order and returns the created order.
func (c *Client) CreateOrder(ctx context.Context, co Checkout) (order.Order, error) {
	var out order.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", authNone, co, &out); err != nil {
		return order.Order{}, err
	}
	out.Status = order.ParseStatus(string(out.Status))
	return out, nil
}
