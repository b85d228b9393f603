package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/orderdeck/orderdeck/internal/slug"
)

// Restaurant is a venue on the platform.
type Restaurant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
}

// Slug derives the URL-safe routing name for the restaurant.
func (r Restaurant) Slug() string { return slug.Make(r.Name) }

// NewRestaurant is the payload for onboarding a venue. The phone number
// identifies the restaurant to the voice ordering integration.
type NewRestaurant struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
}

// ListRestaurants returns the venues on the platform. Reads are public:
// the customer ordering surface resolves slugs from this list before any
// login exists.
func (c *Client) ListRestaurants(ctx context.Context) ([]Restaurant, error) {
	var out []Restaurant
	err := c.do(ctx, http.MethodGet, "/api/restaurants", authNone, nil, &out)
	return out, err
}

// CreateRestaurant onboards a venue. Platform admin only.
func (c *Client) CreateRestaurant(ctx context.Context, r NewRestaurant) (Restaurant, error) {
	var out Restaurant
	err := c.do(ctx, http.MethodPost, "/api/restaurants", authBearer, r, &out)
	return out, err
}

// GetRestaurant fetches one venue by id.
func (c *Client) GetRestaurant(ctx context.Context, id string) (Restaurant, error) {
	var out Restaurant
	err := c.do(ctx, http.MethodGet, "/api/restaurants/"+url.PathEscape(id), authNone, nil, &out)
	return out, err
}
