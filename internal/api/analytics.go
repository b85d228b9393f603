package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AnalyticsOverview aggregates a restaurant's recent performance.
type AnalyticsOverview struct {
	TotalOrders     int     `json:"total_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
	AverageOrder    float64 `json:"average_order_value"`
	CompletedOrders int     `json:"completed_orders"`
	CancelledOrders int     `json:"cancelled_orders"`
	VoiceOrders     int     `json:"voice_orders"`
	SelfServeOrders int     `json:"self_service_orders"`
}

// RevenuePoint is one bucket of the revenue trend series.
type RevenuePoint struct {
	Date    string  `json:"date"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// PopularItem is one entry of the best-sellers list.
type PopularItem struct {
	Name     string  `json:"item_name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// TimelinePoint is one hour bucket of a single day's order timeline.
type TimelinePoint struct {
	Hour   int `json:"hour"`
	Orders int `json:"orders"`
}

// Overview fetches the aggregate stats for the trailing days window.
func (c *Client) Overview(ctx context.Context, restaurantID string, days int) (AnalyticsOverview, error) {
	var out AnalyticsOverview
	path := fmt.Sprintf("/api/analytics/%s/overview?days=%d", url.PathEscape(restaurantID), days)
	err := c.do(ctx, http.MethodGet, path, authBearer, nil, &out)
	return out, err
}

// RevenueTrends fetches the per-day revenue series.
func (c *Client) RevenueTrends(ctx context.Context, restaurantID string, days int) ([]RevenuePoint, error) {
	var out []RevenuePoint
	path := fmt.Sprintf("/api/analytics/%s/revenue-trends?days=%d", url.PathEscape(restaurantID), days)
	err := c.do(ctx, http.MethodGet, path, authBearer, nil, &out)
	return out, err
}

// PopularItems fetches the best sellers over the trailing days window.
func (c *Client) PopularItems(ctx context.Context, restaurantID string, days, limit int) ([]PopularItem, error) {
	var out []PopularItem
	path := fmt.Sprintf("/api/analytics/%s/popular-items?days=%d&limit=%d", url.PathEscape(restaurantID), days, limit)
	err := c.do(ctx, http.MethodGet, path, authBearer, nil, &out)
	return out, err
}

// Timeline fetches the hour-by-hour order counts for one day (YYYY-MM-DD).
func (c *Client) Timeline(ctx context.Context, restaurantID, date string) ([]TimelinePoint, error) {
	var out []TimelinePoint
	path := fmt.Sprintf("/api/analytics/%s/timeline?date=%s", url.PathEscape(restaurantID), url.QueryEscape(date))
	err := c.do(ctx, http.MethodGet, path, authBearer, nil, &out)
	return out, err
}
