// ABOUTME: HTTP client for the e-invoicing REST API
// ABOUTME: Single point of egress; attaches the bearer token and returns raw envelopes

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// TokenSource yields the access token to send with the next request.
// It is consulted on every call so a refreshed token is picked up immediately.
type TokenSource interface {
	AccessToken() string
}

// TokenSourceFunc adapts a function to TokenSource
type TokenSourceFunc func() string

// AccessToken implements TokenSource
func (f TokenSourceFunc) AccessToken() string { return f() }

// Config holds client configuration
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Tokens     TokenSource
	UserAgent  string
	Logger     *slog.Logger
}

// Client is the API client for the e-invoicing backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger

	mu     sync.RWMutex
	tokens TokenSource
}

// ResponseType hints how the response body will be consumed
type ResponseType int

const (
	// ResponseJSON expects a JSON envelope
	ResponseJSON ResponseType = iota
	// ResponseBlob expects a binary payload such as a PDF
	ResponseBlob
)

// RequestOptions customises a single request
type RequestOptions struct {
	Query        url.Values
	ResponseType ResponseType
	Header       http.Header
}

// New creates a new API client
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "einvoice-cli"
	}

	return &Client{
		baseURL:    NormalizeBaseURL(cfg.BaseURL),
		httpClient: httpClient,
		userAgent:  userAgent,
		logger:     logger,
		tokens:     cfg.Tokens,
	}
}

// NormalizeBaseURL adds an https scheme when none is given and trims trailing slashes
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return strings.TrimRight(raw, "/")
}

// BaseURL returns the normalised backend URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTokenSource replaces the token source used for subsequent requests
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.AccessToken()
}

// Get issues a GET request
func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts)
}

// Post issues a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts)
}

// Put issues a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts)
}

// Patch issues a PATCH request with a JSON body
func (c *Client) Patch(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts)
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts)
}

// Do sends a request to a server-relative path and returns the raw envelope.
// Non-2xx responses and transport failures are returned as *Error.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts *RequestOptions) (*Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	reqURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(opts.Query) > 0 {
		reqURL += "?" + opts.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vals := range opts.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.ResponseType == ResponseJSON {
		req.Header.Set("Accept", "application/json")
	} else {
		req.Header.Set("Accept", "*/*")
	}
	req.Header.Set("User-Agent", c.userAgent)

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("API request failed",
			"request_id", requestID,
			"method", method,
			"path", path,
			"error", err,
		)
		return nil, c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Status: resp.StatusCode, Message: "failed to read response body", Err: err}
	}

	c.logger.Debug("API request completed",
		"request_id", requestID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(resp.StatusCode, data)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Data:   data,
	}, nil
}

// handleRequestError converts transport and context errors to typed errors
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		return &Error{Kind: KindCanceled, Message: "request canceled", Err: err}
	case context.DeadlineExceeded:
		return &Error{Kind: KindTimeout, Message: "request timed out", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: "request timed out", Err: err}
	}
	return &Error{
		Kind:    KindTransport,
		Message: fmt.Sprintf("cannot connect to backend at %s", c.baseURL),
		Err:     err,
	}
}
