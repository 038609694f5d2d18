package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// DefaultBaseURL is where `taskdeck serve` listens by default
const DefaultBaseURL = "http://localhost:5000/api"

// Client talks to the task service. Every method issues exactly one request;
// there is no retry and no client-side timeout.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the service rooted at baseURL (e.g. http://host/api)
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client was created with
func (c *Client) BaseURL() string { return c.baseURL }

// do sends one request and decodes a successful body into out (when non-nil)
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	fail := func(status int, body *ErrorBody, err error) error {
		apiErr := &Error{Op: op, Method: method, Path: path, StatusCode: status, Body: body, Err: err}
		c.logger.Printf("API Error: %v", apiErr)
		return apiErr
	}

	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fail(0, nil, fmt.Errorf("encode body: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fail(0, nil, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	c.logger.Printf("Making %s request to %s", method, path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, nil, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, nil, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body ErrorBody
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			return fail(resp.StatusCode, &body, nil)
		}
		return fail(resp.StatusCode, nil, fmt.Errorf("status %s", resp.Status))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fail(resp.StatusCode, nil, fmt.Errorf("decode body: %w", err))
	}
	return nil
}
