// Package client talks to the Quad HTTP API. It implements the backend
// collaborator interfaces of the core packages, so stores, mutators and
// tree assembly run unchanged in a remote process.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"Quad/internal/core/comments"
	"Quad/internal/core/engagement"
	"Quad/internal/core/feed"
	"Quad/internal/core/identity"
)

const (
	// DefaultTimeout bounds a single HTTP attempt
	DefaultTimeout = 10 * time.Second

	// DefaultRetries is how often idempotent requests are retried
	DefaultRetries = 2

	viewerHeader = "X-Quad-User"
)

var (
	_ engagement.LikeRepository = (*Client)(nil)
	_ comments.Repository       = (*Client)(nil)
	_ identity.Fetcher          = (*Client)(nil)
	_ feed.Repository           = (*Client)(nil)
)

// Client is a Quad API client. It keeps the session cookie set by Login.
type Client struct {
	baseURL *url.URL
	rc      *retryablehttp.Client
	logger  *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.rc.HTTPClient = hc }
}

// WithRetries sets how often idempotent requests are retried
func WithRetries(n int) Option {
	return func(c *Client) { c.rc.RetryMax = n }
}

// WithRetryWait sets the backoff bounds between retries
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.rc.RetryWaitMin = minWait
		c.rc.RetryWaitMax = maxWait
	}
}

// WithLogger sets the logger used for retries
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the API at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: DefaultTimeout, Jar: jar}
	rc.RetryMax = DefaultRetries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{baseURL: u, rc: rc, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	rc.Logger = c.logger
	if rc.HTTPClient.Jar == nil {
		rc.HTTPClient.Jar = jar
	}
	return c, nil
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// APIError is a non-2xx API response
type APIError struct {
	// Err is the sentinel the error name maps to, if any
	Err     error
	Name    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error %s (status %d): %s", e.Name, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err means the API could not serve the request right now
func IsUnavailable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
	}
	return false
}

// shared error names; endpoint-specific tables extend this one
var commonErrors = map[string]error{
	"AuthRequired": engagement.ErrNotAuthenticated,
}

type request struct {
	query  url.Values
	body   any
	out    any
	errs   map[string]error
	method string
	path   string
	userID string
	// idempotent requests go through the retrying client
	idempotent bool
}

func (c *Client) do(ctx context.Context, req request) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + req.path
	u.RawPath = ""
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body []byte
	if req.body != nil {
		var err error
		body, err = json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	hreq.Header.Set("Accept", "application/json")
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if req.userID != "" {
		hreq.Header.Set(viewerHeader, req.userID)
	}

	var resp *http.Response
	if req.idempotent {
		rreq, ferr := retryablehttp.FromRequest(hreq)
		if ferr != nil {
			return fmt.Errorf("failed to build request: %w", ferr)
		}
		resp, err = c.rc.Do(rreq)
	} else {
		resp, err = c.rc.HTTPClient.Do(hreq)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, req.errs)
	}
	if req.out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(req.out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

func decodeError(resp *http.Response, errs map[string]error) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024)); err == nil {
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Name = payload.Error
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
	}
	if sentinel, ok := errs[apiErr.Name]; ok {
		apiErr.Err = sentinel
	} else if sentinel, ok := commonErrors[apiErr.Name]; ok {
		apiErr.Err = sentinel
	}
	return apiErr
}

// Login starts a session for the given identity; later requests carry the session cookie
func (c *Client) Login(ctx context.Context, s identity.Snapshot) (*identity.Snapshot, error) {
	var out identity.Snapshot
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/session",
		body: map[string]string{
			"userId":      s.UserID,
			"displayName": s.DisplayName,
			"avatarUrl":   s.AvatarURL,
		},
		out:        &out,
		idempotent: true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/session", idempotent: true})
}
