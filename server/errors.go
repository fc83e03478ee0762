package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"auto_wordpress_article_publisher/backend"
)

// Error types carried in the error_type field of synthesized errors.
const (
	ErrorTypeTimeout            = "timeout"
	ErrorTypeBackendUnreachable = "backend_unreachable"
	ErrorTypeInvalidResponse    = "invalid_response"
	ErrorTypeResponseTooLarge   = "response_too_large"
	ErrorTypeInvalidRequest     = "invalid_request"
	ErrorTypeNotFound           = "not_found"
	ErrorTypeInternal           = "internal"
)

// TimeoutMessage is returned with 408 when the backend exceeds its budget.
const TimeoutMessage = "Request timeout: the backend did not respond in time"

// ProxyError is the uniform error reply: {error, error_type?, ...meta}.
type ProxyError struct {
	Message    string
	HTTPStatus int
	ErrorType  string
	Meta       map[string]any
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("%d %s", e.HTTPStatus, e.Message)
}

// MarshalJSON flattens Meta next to error and error_type.
func (e *ProxyError) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Meta)+2)
	for k, v := range e.Meta {
		out[k] = v
	}
	out["error"] = e.Message
	if e.ErrorType != "" {
		out["error_type"] = e.ErrorType
	}
	return json.Marshal(out)
}

// failureError maps a call that produced no usable response: exceeded
// budget is 408, an oversized body 502, anything else is 500 naming the
// failed operation.
func failureError(op backend.Operation, err error) *ProxyError {
	if errors.Is(err, backend.ErrResponseTooLarge) {
		return &ProxyError{
			Message:    "Backend response too large",
			HTTPStatus: http.StatusBadGateway,
			ErrorType:  ErrorTypeResponseTooLarge,
			Meta:       map[string]any{"operation": op.Name},
		}
	}
	if errors.Is(err, backend.ErrTimeout) {
		return &ProxyError{
			Message:    TimeoutMessage,
			HTTPStatus: http.StatusRequestTimeout,
			ErrorType:  ErrorTypeTimeout,
			Meta:       map[string]any{"operation": op.Name},
		}
	}
	return &ProxyError{
		Message:    op.FailureMessage,
		HTTPStatus: http.StatusInternalServerError,
		ErrorType:  ErrorTypeBackendUnreachable,
		Meta:       map[string]any{"operation": op.Name},
	}
}

// malformedError replaces a non-JSON backend body. The raw body is dropped;
// only its status and content type survive. A non-JSON 2xx becomes 502.
func malformedError(op backend.Operation, resp *backend.Response) *ProxyError {
	status := resp.StatusCode
	if status < 400 {
		status = http.StatusBadGateway
	}
	return &ProxyError{
		Message:    fmt.Sprintf("Backend returned an invalid response (HTTP %d)", resp.StatusCode),
		HTTPStatus: status,
		ErrorType:  ErrorTypeInvalidResponse,
		Meta: map[string]any{
			"operation":       op.Name,
			"original_status": resp.StatusCode,
			"content_type":    resp.MediaType(),
		},
	}
}

func writeProxyError(w http.ResponseWriter, perr *ProxyError) {
	writeJSON(w, perr.HTTPStatus, perr)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
