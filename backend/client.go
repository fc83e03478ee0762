// Package backend forwards single requests to the content-generation
// backend under per-operation time budgets.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrTimeout reports that an operation exceeded its budget without a response.
var ErrTimeout = errors.New("backend request timed out")

// ErrResponseTooLarge reports a reply body over the buffering limit.
var ErrResponseTooLarge = errors.New("backend response too large")

// maxResponseBytes bounds how much of a backend reply is buffered.
const maxResponseBytes = 16 << 20

// TransportError means no response was received at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Response is a fully buffered backend reply.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IsJSON reports whether the body parses as a JSON document.
func (r *Response) IsJSON() bool {
	trimmed := bytes.TrimSpace(r.Body)
	return len(trimmed) > 0 && json.Valid(trimmed)
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// MediaType returns the content type without parameters, or "unknown".
func (r *Response) MediaType() string {
	if r.ContentType == "" {
		return "unknown"
	}
	mt, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return r.ContentType
	}
	return mt
}

// Client talks to one backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
	ops     Operations
	maxBody int64
}

// NewClient builds a client for baseURL. A nil httpClient gets a default
// client without a global timeout; budgets are applied per operation.
func NewClient(baseURL string, budgets Budgets, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		ops:     NewOperations(budgets),
		maxBody: maxResponseBytes,
	}
}

// Operations returns the operation table this client was built with.
func (c *Client) Operations() Operations {
	return c.ops
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends body to op's path and buffers the reply. Any HTTP status is a
// successful call; only a missing response is an error, either ErrTimeout
// (wrapped) or *TransportError. A body over the limit is ErrResponseTooLarge
// rather than a truncated reply.
func (c *Client) Do(ctx context.Context, op Operation, body []byte) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, op.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, op.Method, c.baseURL+op.Path, reader)
	if err != nil {
		return nil, &TransportError{Op: op.Name, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, classify(ctx, op, err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%s: status %d body exceeds %d bytes: %w", op.Name, resp.StatusCode, c.maxBody, ErrResponseTooLarge)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// Probe calls the health operation and reports whether it answered 2xx.
func (c *Client) Probe(ctx context.Context) error {
	resp, err := c.Do(ctx, c.ops.Health, nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%s: backend answered %d", c.ops.Health.Name, resp.StatusCode)
	}
	return nil
}

func classify(ctx context.Context, op Operation, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s after %s: %w", op.Name, op.Timeout, ErrTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s after %s: %w", op.Name, op.Timeout, ErrTimeout)
	}
	return &TransportError{Op: op.Name, Err: err}
}

// budgetOrDefault guards against zero budgets from hand-built Budgets values.
func budgetOrDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
