package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrNetwork wraps failures where no HTTP response was obtained.
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse is returned when a 2xx body is not valid JSON.
	ErrMalformedResponse = errors.New("malformed response body")
	// ErrEmptyAppeal is returned when an appeal has no text.
	ErrEmptyAppeal = errors.New("appeal text is empty")
	// ErrNoCredential is returned by operations that need a logged-in session.
	ErrNoCredential = errors.New("not logged in")
	// ErrInvalidTheme is returned for theme keys the client does not know.
	ErrInvalidTheme = errors.New("unknown theme")
)

// APIError is a normalized non-2xx response.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return e.Message
}

// errorFields are probed in order; "error.message" covers {"error":{"code","message"}} bodies.
var errorFields = []string{"error", "error.message", "detail", "message"}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{Message: errorMessage(status, body), StatusCode: status}
}

func errorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, field := range errorFields {
			r := gjson.GetBytes(body, field)
			if r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
				return r.Str
			}
		}
	}
	return fmt.Sprintf("Error %d", status)
}

// StatusCodeOf returns the upstream status carried by err, or 0.
func StatusCodeOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
