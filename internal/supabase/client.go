// Package supabase is a thin REST client for the hosted auth (GoTrue) and
// database (PostgREST) endpoints the product depends on.
package supabase

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
	"time"
)

// ErrNetwork marks failures to reach the hosted service at all.
var ErrNetwork = errors.New("supabase: network error")

// APIError is a non-2xx answer from the hosted service.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to one hosted project.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) URL() string    { return c.baseURL }
func (c *Client) APIKey() string { return c.apiKey }

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	bearer  string
	headers map[string]string
}

// do sends req and decodes a JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	bearer := req.bearer
	if bearer == "" {
		bearer = c.apiKey
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeError normalizes the error shapes of the hosted endpoints. GoTrue
// answers with msg or error/error_description, PostgREST with message/code.
func decodeError(status int, body []byte) error {
	var raw struct {
		Code             json.RawMessage `json:"code"`
		ErrorCode        string          `json:"error_code"`
		Msg              string          `json:"msg"`
		Message          string          `json:"message"`
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
		Details          string          `json:"details"`
		Hint             string          `json:"hint"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &raw); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
		return apiErr
	}

	for _, m := range []string{raw.Msg, raw.Message, raw.ErrorDescription, raw.Error} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}

	apiErr.Code = raw.ErrorCode
	if apiErr.Code == "" && len(raw.Code) > 0 {
		var s string
		if err := json.Unmarshal(raw.Code, &s); err == nil {
			apiErr.Code = s
		}
	}
	if apiErr.Code == "" {
		apiErr.Code = raw.Error
	}
	apiErr.Details = raw.Details
	apiErr.Hint = raw.Hint
	return apiErr
}
