package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/submissions"
)

var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer from the admin API other than 401.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+" "+v)
	}
	return fmt.Sprintf("api error %d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

// Query mirrors the admin list filters.
type Query struct {
	Type   submissions.Type
	Read   *bool
	Status submissions.Status
	Limit  int64
	Offset int64
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	if q.Read != nil {
		v.Set("read", strconv.FormatBool(*q.Read))
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.FormatInt(q.Limit, 10))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.FormatInt(q.Offset, 10))
	}
	return v
}

// Client talks to the admin endpoints under baseURL (for example
// http://localhost:8080/api/v1).
type Client struct {
	baseURL    string
	adminKey   string
	token      string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithAdminKey(key string) ClientOption {
	return func(c *Client) { c.adminKey = key }
}

func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login exchanges operator credentials for an access token kept on the client.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/admin/login", nil, body, &out); err != nil {
		return err
	}
	if out.AccessToken == "" {
		return errors.New("login response missing access token")
	}
	c.token = out.AccessToken
	return nil
}

func (c *Client) Token() string {
	return c.token
}

type listResponse struct {
	Submissions []submissions.Submission `json:"submissions"`
	Total       int64                    `json:"total"`
}

func (c *Client) List(ctx context.Context, q Query) ([]submissions.Submission, int64, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, "/admin/submissions", q.values(), nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Submissions, out.Total, nil
}

type patchResponse struct {
	Submission submissions.Submission `json:"submission"`
}

func (c *Client) Patch(ctx context.Context, id string, fields map[string]interface{}) (submissions.Submission, error) {
	var out patchResponse
	path := "/admin/submissions/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, path, nil, fields, &out); err != nil {
		return submissions.Submission{}, err
	}
	return out.Submission, nil
}

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.adminKey != "" {
		req.Header.Set(auth.AdminKeyHeader, c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var e errorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Message, Fields: e.Errors}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
