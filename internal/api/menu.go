package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/orderdeck/orderdeck/internal/menu"
)

// FullMenu fetches the complete menu for a restaurant: active categories
// with their items and modifiers. Public read; this is what customers
// browse and what the menu cache stores.
func (c *Client) FullMenu(ctx context.Context, restaurantID string) (menu.Menu, error) {
	var out menu.Menu
	path := "/api/menu/" + url.PathEscape(restaurantID)
	err := c.do(ctx, http.MethodGet, path, authNone, nil, &out)
	return out, err
}

// Categories lists a restaurant's menu categories (without items).
func (c *Client) Categories(ctx context.Context, restaurantID string) ([]menu.Category, error) {
	var out []menu.Category
	path := fmt.Sprintf("/api/menu/%s/categories", url.PathEscape(restaurantID))
	err := c.do(ctx, http.MethodGet, path, authBearer, nil, &out)
	return out, err
}

// CreateCategory adds a category to a restaurant's menu.
func (c *Client) CreateCategory(ctx context.Context, restaurantID string, cat menu.Category) (menu.Category, error) {
	var out menu.Category
	path := fmt.Sprintf("/api/menu/%s/categories", url.PathEscape(restaurantID))
	err := c.do(ctx, http.MethodPost, path, authBearer, cat, &out)
	return out, err
}

// UpdateCategory updates fields of an existing category.
func (c *Client) UpdateCategory(ctx context.Context, categoryID string, fields map[string]any) (menu.Category, error) {
	var out menu.Category
	path := "/api/menu/categories/" + url.PathEscape(categoryID)
	err := c.do(ctx, http.MethodPut, path, authBearer, fields, &out)
	return out, err
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, categoryID string) error {
	path := "/api/menu/categories/" + url.PathEscape(categoryID)
	return c.do(ctx, http.MethodDelete, path, authBearer, nil, nil)
}

// CreateItem adds an item (with modifiers) to a category.
func (c *Client) CreateItem(ctx context.Context, restaurantID string, item menu.Item) (menu.Item, error) {
	var out menu.Item
	path := fmt.Sprintf("/api/menu/%s/items", url.PathEscape(restaurantID))
	err := c.do(ctx, http.MethodPost, path, authBearer, item, &out)
	return out, err
}

// UpdateItem updates fields of an existing item.
func (c *Client) UpdateItem(ctx context.Context, itemID string, fields map[string]any) (menu.Item, error) {
	var out menu.Item
	path := "/api/menu/items/" + url.PathEscape(itemID)
	err := c.do(ctx, http.MethodPut, path, authBearer, fields, &out)
	return out, err
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	path := "/api/menu/items/" + url.PathEscape(itemID)
	return c.do(ctx, http.MethodDelete, path, authBearer, nil, nil)
}

// UploadMenu sends a raw menu file (PDF or image) for server-side parsing
// during onboarding. The platform replaces the restaurant's menu with the
// parsed result.
func (c *Client) UploadMenu(ctx context.Context, restaurantID, filename string, file io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}

	path := fmt.Sprintf("%s/api/menu/%s/upload", c.baseURL, url.PathEscape(restaurantID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := c.authorize(req, authBearer); err != nil {
		return err
	}
	return c.send(req, nil)
}
