package finala

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrUnauthorized is returned when the API rejects the session cookie.
var ErrUnauthorized = errors.New("finala: unauthorized")

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("finala: not found")

// Fetcher defines the read side of the Finala API.
// This interface is implemented by *Client and can be used for testing.
type Fetcher interface {
	FetchExecutions(ctx context.Context) ([]Execution, error)
	FetchSummary(ctx context.Context, executionID string, filters url.Values) (Summary, error)
	FetchResources(ctx context.Context, resource, executionID string, filters url.Values) ([]Row, error)
	FetchTags(ctx context.Context, executionID string) (map[string][]string, error)
	FetchAccounts(ctx context.Context, executionID string) ([]Account, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client talks to the Finala HTTP API.
type Client struct {
	uiURL     *url.URL
	http      *http.Client
	userAgent string

	mu      sync.RWMutex
	baseURL *url.URL
	pinned  bool
}

const (
	defaultUIURL     = "http://127.0.0.1:8080"
	defaultUserAgent = "tally/0.1"
	requestTimeout   = 30 * time.Second
)

// Option customises a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithAPIURL pins the API origin. FetchSettings never moves a pinned origin.
func WithAPIURL(raw string) Option {
	return func(c *Client) {
		if strings.TrimSpace(raw) == "" {
			return
		}
		if u, err := parseBaseURL(raw); err == nil {
			c.baseURL = u
			c.pinned = true
		}
	}
}

// NewClient builds a Client for the UI origin that serves /api/v1/settings.
// Until settings are fetched the UI origin doubles as the API origin.
func NewClient(uiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(uiURL)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	c := &Client{
		uiURL:   base,
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
			Jar:     jar,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API origin currently in use.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL.String()
}

// FetchSettings loads bootstrap settings and rebases subsequent calls on the
// advertised API endpoint, unless the origin was pinned with WithAPIURL.
func (c *Client) FetchSettings(ctx context.Context) (Settings, error) {
	if c == nil {
		return Settings{}, fmt.Errorf("client is nil")
	}
	var payload Settings
	reqURL := c.uiURL.ResolveReference(&url.URL{Path: "/api/v1/settings"})
	if err := c.doAbs(ctx, http.MethodGet, reqURL, nil, &payload); err != nil {
		return Settings{}, err
	}
	if endpoint := strings.TrimSpace(payload.APIEndpoint); endpoint != "" {
		base, err := parseBaseURL(endpoint)
		if err != nil {
			return payload, fmt.Errorf("settings api_endpoint: %w", err)
		}
		c.mu.Lock()
		if !c.pinned {
			c.baseURL = base
		}
		c.mu.Unlock()
	}
	return payload, nil
}

// Login authenticates and stores the session cookie. A rejected login
// returns false with a nil error.
func (c *Client) Login(ctx context.Context, username, password string) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("client is nil")
	}
	body, err := json.Marshal(map[string]string{
		"Username": username,
		"Password": password,
	})
	if err != nil {
		return false, fmt.Errorf("encode login: %w", err)
	}
	err = c.do(ctx, http.MethodPost, &url.URL{Path: "/api/v1/login"}, body, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUnauthorized):
		return false, nil
	default:
		return false, err
	}
}

// FetchExecutions lists recent collector runs.
func (c *Client) FetchExecutions(ctx context.Context) ([]Execution, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []Execution
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/api/v1/executions"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchSummary retrieves per-resource aggregates for an execution.
func (c *Client) FetchSummary(ctx context.Context, executionID string, filters url.Values) (Summary, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(executionID) == "" {
		return nil, fmt.Errorf("execution id required")
	}
	rel := &url.URL{
		Path:     "/api/v1/summary/" + executionID,
		RawQuery: readableQuery(filters),
	}
	var payload Summary
	if err := c.do(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = Summary{}
	}
	return payload, nil
}

// FetchResources retrieves row-level findings for a resource type.
func (c *Client) FetchResources(ctx context.Context, resource, executionID string, filters url.Values) ([]Row, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(resource) == "" {
		return nil, fmt.Errorf("resource name required")
	}
	if strings.TrimSpace(executionID) == "" {
		return nil, fmt.Errorf("execution id required")
	}
	values := url.Values{}
	for k, v := range filters {
		values[k] = append([]string(nil), v...)
	}
	values.Set("executionID", executionID)
	rel := &url.URL{Path: "/api/v1/resources/" + resource, RawQuery: values.Encode()}
	var payload []resourceEnvelope
	if err := c.do(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, nil
	}
	rows := make([]Row, 0, len(payload))
	for _, env := range payload {
		rows = append(rows, env.Data)
	}
	return rows, nil
}

// FetchTags retrieves the tag key to values vocabulary for an execution.
func (c *Client) FetchTags(ctx context.Context, executionID string) (map[string][]string, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(executionID) == "" {
		return nil, fmt.Errorf("execution id required")
	}
	var payload map[string][]string
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/api/v1/tags/" + executionID}, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchAccounts lists the accounts scanned by an execution. Older API
// servers do not expose the endpoint; a 404 yields an empty list.
func (c *Client) FetchAccounts(ctx context.Context, executionID string) ([]Account, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(executionID) == "" {
		return nil, fmt.Errorf("execution id required")
	}
	var payload []Account
	err := c.do(ctx, http.MethodGet, &url.URL{Path: "/api/v1/accounts/" + executionID}, nil, &payload)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) do(ctx context.Context, method string, rel *url.URL, body []byte, dest any) error {
	c.mu.RLock()
	reqURL := c.baseURL.ResolveReference(rel)
	c.mu.RUnlock()
	return c.doAbs(ctx, method, reqURL, body, dest)
}

func (c *Client) doAbs(ctx context.Context, method string, reqURL *url.URL, body []byte, dest any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("api %s: %w", reqURL.Path, ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("api %s: %w", reqURL.Path, ErrNotFound)
	case resp.StatusCode >= 400:
		return fmt.Errorf("api %s returned status %d", reqURL.Path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readableQuery encodes values but keeps the filter separators literal, the
// way the dashboard has always sent summary queries.
func readableQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	encoded := values.Encode()
	return strings.NewReplacer("%3A", ":", "%2C", ",").Replace(encoded)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultUIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
