// Package client talks to the zia server on behalf of the CLI.
//
// # Overview
//
// HTTPClient wraps the JSON API: register, login, refresh, the /auth/me
// profile calls and the chat proxy. It keeps the current token pair and, when
// an authenticated call comes back 401, exchanges the refresh token for a new
// pair once and retries. Health probes the gRPC health endpoint.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. Non-2xx answers are *APIError; a
// 401 also matches ErrUnauthorized.
package client
