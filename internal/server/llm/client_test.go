package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/zia/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_NotConfigured(t *testing.T) {
	c := NewClient(Config{}, logging.Nop())
	assert.False(t, c.Configured())

	_, err := c.Send(context.Background(), []byte(`{}`))
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestSend_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key-1", r.Header.Get("x-api-key"))
		assert.Equal(t, APIVersion, r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("content-type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"model":"m"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","content":[{"type":"text","text":"hi"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key-1", URL: srv.URL}, logging.Nop())
	out, err := c.Send(context.Background(), []byte(`{"model":"m"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"msg_1","content":[{"type":"text","text":"hi"}]}`, string(out))
}

func TestSend_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", URL: srv.URL}, logging.Nop())
	_, err := c.Send(context.Background(), []byte(`{}`))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Contains(t, string(se.Body), "rate_limit_error")
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{APIKey: "k", URL: srv.URL, Timeout: 50 * time.Millisecond}, logging.Nop())
	_, err := c.Send(context.Background(), []byte(`{}`))
	require.Error(t, err)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestSend_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(Config{APIKey: "k", URL: srv.URL}, logging.Nop())
	_, err := c.Send(ctx, []byte(`{}`))
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{APIKey: "k"}, logging.Nop())
	assert.Equal(t, DefaultURL, c.url)
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
}
