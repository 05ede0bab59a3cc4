// Package postapi is the HTTP client for the postd posts API. Client
// implements poststore.Store, so the effect orchestrator can use it directly.
package postapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/five82/postboard/internal/post"
	"github.com/five82/postboard/internal/poststore"
)

const (
	defaultAPIURL    = "127.0.0.1:7480"
	defaultUserAgent = "postboard/0.1"
)

// Client talks to the postd HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

var _ poststore.Store = (*Client)(nil)

// ListResponse mirrors GET /api/posts.
type ListResponse struct {
	Posts []post.Post `json:"posts"`
}

// CreateResponse mirrors POST /api/posts.
type CreateResponse struct {
	ID string `json:"id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient builds a Client for apiURL, a host:port or full URL. Requests
// carry no client-side timeout; callers bound them through ctx.
func NewClient(apiURL string) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
	}, nil
}

// ListActive implements poststore.Store.
func (c *Client) ListActive(ctx context.Context) ([]post.Post, error) {
	var payload ListResponse
	if err := c.do(ctx, "list", http.MethodGet, "/api/posts", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Posts, nil
}

// Create implements poststore.Store.
func (c *Client) Create(ctx context.Context, p post.Post) (string, error) {
	var payload CreateResponse
	if err := c.do(ctx, "create", http.MethodPost, "/api/posts", p, &payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", poststore.Fail("create", errors.New("response carried no id"))
	}
	return payload.ID, nil
}

// Update implements poststore.Store.
func (c *Client) Update(ctx context.Context, id string, fields post.Draft) error {
	if strings.TrimSpace(id) == "" {
		return poststore.Fail("update", errors.New("post id required"))
	}
	return c.do(ctx, "update", http.MethodPatch, "/api/posts/"+url.PathEscape(id), fields, nil)
}

// SoftDelete implements poststore.Store.
func (c *Client) SoftDelete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return poststore.Fail("delete", errors.New("post id required"))
	}
	return c.do(ctx, "delete", http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, dest any) error {
	if c == nil {
		return poststore.Fail(op, errors.New("client is nil"))
	}
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return poststore.Fail(op, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return poststore.Fail(op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return poststore.Fail(op, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return responseError(op, path, resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return poststore.Fail(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func responseError(op, path string, resp *http.Response) error {
	var payload ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)

	cause := fmt.Errorf("api %s returned status %d", path, resp.StatusCode)
	if resp.StatusCode == http.StatusNotFound {
		cause = fmt.Errorf("%w: %w", poststore.ErrNotFound, cause)
	}
	return &poststore.Error{Op: op, Message: strings.TrimSpace(payload.Message), Err: cause}
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
