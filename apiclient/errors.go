package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated means the session is missing or expired.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidJSON means the proxy answered with a body that is not JSON.
	ErrInvalidJSON = errors.New("server returned invalid JSON response")
)

// Error types the proxy and backend are known to send.
const (
	TypeBlacklisted     = "blacklisted"
	TypeUnauthenticated = "unauthenticated"
	TypeTimeout         = "timeout"
)

// APIError is a non-2xx reply decoded from the common error shape.
type APIError struct {
	Status  int
	Message string
	Type    string
	// Fields holds the whole decoded body, including extra keys such as
	// blacklisted_domain or original_status.
	Fields map[string]any
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// Unwrap lets errors.Is(err, ErrUnauthenticated) match a 401.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Type == TypeUnauthenticated {
		return ErrUnauthenticated
	}
	return nil
}

// Field returns a string field from the error body.
func (e *APIError) Field(name string) string {
	v, _ := e.Fields[name].(string)
	return v
}

func decodeAPIError(status int, body []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return fmt.Errorf("status %d: %w", status, ErrInvalidJSON)
	}
	apiErr := &APIError{Status: status, Fields: fields}
	apiErr.Message, _ = fields["error"].(string)
	apiErr.Type, _ = fields["error_type"].(string)
	return apiErr
}
