// Package llm is a thin HTTP client for the Anthropic Messages API. It
// forwards prepared request bodies and returns the raw response.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/zia/internal/logging"
)

const (
	DefaultURL     = "https://api.anthropic.com/v1/messages"
	APIVersion     = "2023-06-01"
	DefaultTimeout = 120 * time.Second

	// maxLoggedBody caps how much of an error response ends up in logs.
	maxLoggedBody = 500
	// maxResponseBody caps how much of any response is read into memory.
	maxResponseBody = 32 << 20
)

// ErrNotConfigured is returned by Send when no API key was provided.
var ErrNotConfigured = errors.New("ANTHROPIC_API_KEY is not configured on the server")

// StatusError reports a non-200 response from the provider.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Claude API returned %d", e.Code)
}

type Config struct {
	APIKey  string
	URL     string
	Timeout time.Duration
}

type Client struct {
	apiKey string
	url    string
	http   *http.Client
	logger logging.Logger
}

func NewClient(cfg Config, logger logging.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		apiKey: cfg.APIKey,
		url:    cfg.URL,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("module", "llm_client"),
	}
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Send posts body to the Messages API and returns the response body of a
// 200 reply. Any other status yields a *StatusError.
func (c *Client) Send(ctx context.Context, body []byte) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", APIVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call Claude API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read Claude API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logged := data
		if len(logged) > maxLoggedBody {
			logged = logged[:maxLoggedBody]
		}
		c.logger.Error(ctx, "Claude API error", "status", resp.StatusCode, "body", string(logged))
		return nil, &StatusError{Code: resp.StatusCode, Body: data}
	}

	return data, nil
}
