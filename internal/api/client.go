// Package api is the HTTP client for the external ordering platform.
//
// All business rules live behind the API; this client only shapes requests,
// attaches credentials, and decodes responses. Two credential kinds exist:
// a bearer token for admin/staff actions and a static X-API-Key header for
// the display endpoints (order listing and status updates).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the platform API under its /api base path.
// The zero value is not usable; construct with New.
type Client struct {
	baseURL string
	apiKey  string
	token   string
	httpc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the X-API-Key used by display endpoints.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithToken sets the bearer token used by admin/staff endpoints.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient overrides the underlying HTTP client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// New creates a client for the API at baseURL (scheme://host, without the
// /api suffix).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after login.
func (c *Client) SetToken(token string) { c.token = token }

// authMode selects which credential a request carries.
type authMode int

const (
	authNone   authMode = iota
	authBearer          // Authorization: Bearer <token>
	authAPIKey          // X-API-Key: <key>
)

// do executes one JSON round-trip. A nil body sends no payload; a non-nil
// out decodes a 2xx response body into out. Non-2xx responses become
// *APIError; transport failures become ErrUnreachable.
func (c *Client) do(ctx context.Context, method, path string, mode authMode, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(req, mode); err != nil {
		return err
	}

	return c.send(req, out)
}

// authorize attaches the credential for mode, failing early when it is
// absent so the caller can render a configuration or login error instead of
// a confusing 401 from the server.
func (c *Client) authorize(req *http.Request, mode authMode) error {
	switch mode {
	case authBearer:
		if c.token == "" {
			return ErrNoSession
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
	case authAPIKey:
		if c.apiKey == "" {
			return ErrNoAPIKey
		}
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return nil
}

// send performs the request and decodes the response.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
