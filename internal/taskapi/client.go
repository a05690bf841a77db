package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public API host.
	DefaultBaseURL = "https://ru.yougile.com"
	// DefaultPageLimit is the page size requested when listing a column.
	DefaultPageLimit = 1000
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second
)

// Client talks to the REST v2 task API. It performs exactly one HTTP request
// per method call and does no rate limiting of its own.
type Client struct {
	baseURL   string
	token     string
	pageLimit int
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithPageLimit sets the page size used by ListTasks.
func WithPageLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageLimit = n
		}
	}
}

// NewClient creates a Client authenticating with the given bearer token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		pageLimit: DefaultPageLimit,
		http:      &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTasks returns one page of the tasks in columnID.
func (c *Client) ListTasks(ctx context.Context, columnID string, offset int) (Page, error) {
	q := url.Values{}
	q.Set("columnId", columnID)
	q.Set("limit", strconv.Itoa(c.pageLimit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}

	var page Page
	if err := c.do(ctx, http.MethodGet, "/api-v2/tasks?"+q.Encode(), nil, &page); err != nil {
		return Page{}, fmt.Errorf("listing tasks of column %s: %w", columnID, err)
	}
	return page, nil
}

// GetTask fetches a task by id.
func (c *Client) GetTask(ctx context.Context, id string) (Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, "/api-v2/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return Task{}, fmt.Errorf("getting task %s: %w", id, err)
	}
	return task, nil
}

// UpdateTaskLabels sends the full sticker map of a task.
func (c *Client) UpdateTaskLabels(ctx context.Context, id string, labels map[string]string) error {
	body := struct {
		Stickers map[string]string `json:"stickers"`
	}{Stickers: labels}

	if err := c.do(ctx, http.MethodPut, "/api-v2/tasks/"+url.PathEscape(id), body, nil); err != nil {
		return fmt.Errorf("updating task %s: %w", id, err)
	}
	return nil
}

// do performs one request, encoding in as JSON and decoding the response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return newStatusError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
