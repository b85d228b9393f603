package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/orderdeck/orderdeck/internal/session"
)

// LoginResult is the platform's response to a successful login.
type LoginResult struct {
	Token string       `json:"access_token"`
	User  session.User `json:"user"`
}

// Login exchanges credentials for a bearer token. The returned token is
// also installed on the client for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", authNone, body, &out); err != nil {
		return LoginResult{}, err
	}
	c.token = out.Token
	return out, nil
}

// Me returns the identity behind the current bearer token.
func (c *Client) Me(ctx context.Context) (session.User, error) {
	var out session.User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", authBearer, nil, &out)
	return out, err
}

// ChangePassword changes the current user's password.
func (c *Client) ChangePassword(ctx context.Context, current, updated string) error {
	body := map[string]string{"current_password": current, "new_password": updated}
	return c.do(ctx, http.MethodPost, "/api/auth/change-password", authBearer, body, nil)
}

// NewUser is the payload for creating a staff or admin account.
// RestaurantID is required for restaurant-scoped roles.
type NewUser struct {
	Username     string       `json:"username"`
	Password     string       `json:"password"`
	Role         session.Role `json:"role"`
	Email        string       `json:"email,omitempty"`
	FullName     string       `json:"full_name,omitempty"`
	RestaurantID string       `json:"restaurant_id,omitempty"`
}

// CreateUser creates an account. Requires an admin bearer token.
func (c *Client) CreateUser(ctx context.Context, u NewUser) (session.User, error) {
	var out session.User
	err := c.do(ctx, http.MethodPost, "/api/auth/users", authBearer, u, &out)
	return out, err
}

// ListUsers returns the accounts visible to the caller; restaurantID
// narrows the list to one restaurant's staff.
func (c *Client) ListUsers(ctx context.Context, restaurantID string) ([]session.User, error) {
	path := "/api/auth/users"
	if restaurantID != "" {
		path += "?restaurant_id=" + url.QueryEscape(restaurantID)
	}
	var out []session.User
	err := c.do(ctx, http.MethodGet, path, authBearer, nil, &out)
	return out, err
}

// SetUserPassword resets another user's password (admin action).
func (c *Client) SetUserPassword(ctx context.Context, userID, password string) error {
	body := map[string]string{"new_password": password}
	path := fmt.Sprintf("/api/auth/users/%s/password", url.PathEscape(userID))
	return c.do(ctx, http.MethodPut, path, authBearer, body, nil)
}

// DeactivateUser disables an account without deleting it.
func (c *Client) DeactivateUser(ctx context.Context, userID string) error {
	path := fmt.Sprintf("/api/auth/users/%s/deactivate", url.PathEscape(userID))
	return c.do(ctx, http.MethodPut, path, authBearer, nil, nil)
}

// DeleteUser removes an account permanently.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	path := fmt.Sprintf("/api/auth/users/%s", url.PathEscape(userID))
	return c.do(ctx, http.MethodDelete, path, authBearer, nil, nil)
}
