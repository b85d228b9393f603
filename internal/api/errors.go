package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrUnreachable wraps transport-level failures (no response at all).
	// Surfaces show a "cannot connect" message; nothing retries
	// automatically except the self-healing display refresh loops.
	ErrUnreachable = errors.New("cannot connect to the order service")

	// ErrNoSession means a bearer-protected call was attempted without a
	// stored login.
	ErrNoSession = errors.New("not logged in")

	// ErrNoAPIKey means a display endpoint was called without the KDS API
	// key configured. Rendered as a configuration error, not an auth toast.
	ErrNoAPIKey = errors.New("display API key is not configured")
)

// APIError is a non-2xx response from the platform. 4xx messages are
// business/validation errors surfaced verbatim to the user.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsAuthError reports whether err is a 401/403 response. For bearer calls
// the stored session must be invalidated; for API-key calls this indicates
// a configuration problem.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// decodeAPIError extracts the platform's error message from a non-2xx
// response. FastAPI-style bodies carry it under "detail"; plain "error" and
// "message" keys are accepted as well. An unreadable body still yields an
// APIError with the status code.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var body struct {
		Detail  string `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Detail != "":
			apiErr.Message = body.Detail
		case body.Error != "":
			apiErr.Message = body.Error
		case body.Message != "":
			apiErr.Message = body.Message
		}
	}
	return apiErr
}
