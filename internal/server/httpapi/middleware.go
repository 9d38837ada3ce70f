package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/zia/internal/common"
	"github.com/dmitrijs2005/zia/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

func currentUser(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// requireAuth resolves the bearer access token to an account before invoking
// the handler.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		token, err := bearerToken(req.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			r.recordAuth("resolve", common.ErrorUnauthorized)
			writeError(w, http.StatusUnauthorized, detailNotAuthenticated)
			return
		}

		user, err := r.auth.ResolveCurrentUser(req.Context(), token)
		r.recordAuth("resolve", err)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}

		if rec, ok := w.(*statusRecorder); ok {
			rec.userID = user.ID
		}
		next(w, req.WithContext(context.WithValue(req.Context(), userKey, user)))
	}
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// cors allows any origin, with credentials. The request origin is echoed
// because browsers reject a wildcard together with credentials.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, req)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")

		if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "DELETE, GET, HEAD, OPTIONS, PATCH, POST, PUT")
			if reqHeaders := req.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			}
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, req)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	userID string
}

func (rr *statusRecorder) WriteHeader(code int) {
	if rr.status == 0 {
		rr.status = code
	}
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *statusRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += n
	return n, err
}

func (rr *statusRecorder) Unwrap() http.ResponseWriter {
	return rr.ResponseWriter
}

// instrument logs every request and feeds the request metrics.
func (r *Router) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		if r.metrics != nil {
			r.metrics.ObserveRequest(req.Method, route, status, duration)
		}

		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if recorder.userID != "" {
			fields = append(fields, "user_id", recorder.userID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error(req.Context(), "http request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn(req.Context(), "http request", fields...)
		default:
			r.logger.Info(req.Context(), "http request", fields...)
		}
	})
}

// recoverer turns a handler panic into a 500 response.
func (r *Router) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				r.logger.Error(req.Context(), "panic in handler", "path", req.URL.Path, "panic", p)
				writeError(w, http.StatusInternalServerError, detailInternal)
			}
		}()
		next.ServeHTTP(w, req)
	})
}
