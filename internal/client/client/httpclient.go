package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const maxResponseBody = 32 << 20

// HTTPClient is safe for concurrent use. Token updates are reported to the
// listener set with OnTokens so the caller can persist them.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu       sync.Mutex
	tokens   Tokens
	onTokens func(Tokens)
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// OnTokens registers fn to be called whenever the token pair changes. A
// cleared pair is reported as the zero Tokens.
func (c *HTTPClient) OnTokens(fn func(Tokens)) {
	c.mu.Lock()
	c.onTokens = fn
	c.mu.Unlock()
}

func (c *HTTPClient) SetTokens(t Tokens) {
	c.mu.Lock()
	c.tokens = t
	fn := c.onTokens
	c.mu.Unlock()
	if fn != nil {
		fn(t)
	}
}

func (c *HTTPClient) Tokens() Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *HTTPClient) ClearTokens() {
	c.SetTokens(Tokens{})
}

// Register creates an account and keeps the returned tokens.
func (c *HTTPClient) Register(ctx context.Context, email, password string, name *string) (*Tokens, error) {
	body := map[string]any{"email": email, "password": password}
	if name != nil {
		body["name"] = *name
	}
	return c.obtainTokens(ctx, "/auth/register", body)
}

// Login signs in and keeps the returned tokens.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Tokens, error) {
	return c.obtainTokens(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

// Refresh exchanges the kept refresh token for a new pair.
func (c *HTTPClient) Refresh(ctx context.Context) (*Tokens, error) {
	refresh := c.Tokens().RefreshToken
	if refresh == "" {
		return nil, ErrNotSignedIn
	}
	return c.obtainTokens(ctx, "/auth/refresh", map[string]string{"refresh_token": refresh})
}

func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.authed(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateName sets the display name. A nil name leaves it unchanged.
func (c *HTTPClient) UpdateName(ctx context.Context, name *string) (*User, error) {
	var u User
	if err := c.authed(ctx, http.MethodPut, "/auth/me", map[string]*string{"name": name}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteAccount removes the signed-in account and forgets the tokens.
func (c *HTTPClient) DeleteAccount(ctx context.Context) error {
	if err := c.authed(ctx, http.MethodDelete, "/auth/me", nil, nil); err != nil {
		return err
	}
	c.ClearTokens()
	return nil
}

// Chat sends a conversation through the server's proxy.
func (c *HTTPClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var raw json.RawMessage
	if err := c.authed(ctx, http.MethodPost, "/chat/message", req, &raw); err != nil {
		return nil, err
	}
	resp := &ChatResponse{Raw: raw}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	return resp, nil
}

// Ping checks GET /health.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, "", nil)
}

func (c *HTTPClient) obtainTokens(ctx context.Context, path string, body any) (*Tokens, error) {
	var t Tokens
	if err := c.do(ctx, http.MethodPost, path, body, "", &t); err != nil {
		return nil, err
	}
	c.SetTokens(t)
	return &t, nil
}

// authed performs a call with the access token. On 401 it refreshes once and
// retries.
func (c *HTTPClient) authed(ctx context.Context, method, path string, body, out any) error {
	t := c.Tokens()
	if t.AccessToken == "" && t.RefreshToken == "" {
		return ErrNotSignedIn
	}

	if t.AccessToken != "" {
		err := c.do(ctx, method, path, body, t.AccessToken, out)
		if !errors.Is(err, ErrUnauthorized) || t.RefreshToken == "" {
			return err
		}
	}

	nt, err := c.Refresh(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.ClearTokens()
		}
		return err
	}
	return c.do(ctx, method, path, body, nt.AccessToken, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, bearer string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &e) == nil {
			apiErr.Detail = e.Detail
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
