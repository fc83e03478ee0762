// Package apiclient talks to the proxy's /api routes on behalf of the
// terminal composer.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const (
	defaultUserAgent = "wp-autopost/0.1"
	// the proxy enforces its own budgets; this only bounds a stuck connection
	requestTimeout = 200 * time.Second
	maxBodyBytes   = 16 << 20
)

// Client is a session-holding proxy client.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

// NewClient builds a Client for the proxy at rawURL. A nil httpClient gets
// one with a cookie jar so the login session is kept.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	base, err := parseBaseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: requestTimeout, Jar: jar}
	}
	return &Client{baseURL: base, http: httpClient, userAgent: defaultUserAgent}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("proxy url is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy url %q has no host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	return u, nil
}

// BaseURL returns the proxy address.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}

// Login opens a session with the proxy.
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "login", loginRequest{Username: username, Password: password}, nil)
}

// Generate asks for a new article.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (GenerationResult, error) {
	var out GenerationResult
	err := c.do(ctx, http.MethodPost, "api/generate", req, &out)
	return out, err
}

// RegenerateTitle asks for a new title for content.
func (c *Client) RegenerateTitle(ctx context.Context, content string) (string, error) {
	var out titleResponse
	err := c.do(ctx, http.MethodPost, "api/regenerate-title", contentRequest{Content: content}, &out)
	return out.Title, err
}

// RegenerateCategory asks for a new category for content.
func (c *Client) RegenerateCategory(ctx context.Context, content string) (string, error) {
	var out categoryResponse
	err := c.do(ctx, http.MethodPost, "api/regenerate-category", contentRequest{Content: content}, &out)
	return out.Category, err
}

// ConfirmPost publishes the article.
func (c *Client) ConfirmPost(ctx context.Context, req PostRequest) (PostResult, error) {
	var out PostResult
	err := c.do(ctx, http.MethodPost, "api/confirm-post", req, &out)
	return out, err
}

// Health reports proxy and backend reachability.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "api/health", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, dest any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, ErrInvalidJSON)
	}
	return nil
}
