// Package httpapi is the JSON-over-HTTP boundary of the server: routing,
// request decoding, bearer authentication and error mapping.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/zia/internal/logging"
	"github.com/dmitrijs2005/zia/internal/server/metrics"
	"github.com/dmitrijs2005/zia/internal/server/models"
	"github.com/dmitrijs2005/zia/internal/server/services"
)

// AuthService is the subset of services.UserService used by the handlers.
type AuthService interface {
	Register(ctx context.Context, email, password string, name *string) (*services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	ResolveCurrentUser(ctx context.Context, accessToken string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User, name *string) (*models.User, error)
	DeleteAccount(ctx context.Context, user *models.User) error
}

// ChatService is the subset of services.ChatService used by the handlers.
type ChatService interface {
	Send(ctx context.Context, userID string, req services.ChatRequest) (json.RawMessage, error)
}

const (
	healthCheckTimeout = 2 * time.Second
	maxAuthBody        = 1 << 20
	maxChatBody        = 10 << 20
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	handler  http.Handler
	logger   logging.Logger
	auth     AuthService
	chat     ChatService
	metrics  *metrics.Metrics
	dbHealth func(context.Context) error
}

// NewRouter assembles routes with dependencies. metrics and dbHealth may be
// nil.
func NewRouter(logger logging.Logger, authSvc AuthService, chatSvc ChatService, m *metrics.Metrics, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger.With("module", "http_api"),
		auth:     authSvc,
		chat:     chatSvc,
		metrics:  m,
		dbHealth: dbHealth,
	}
	r.register()
	r.handler = r.recoverer(r.instrument(cors(r.mux)))
	return r
}

// ServeHTTP satisfies http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("GET /health", r.handleHealth)
	if r.metrics != nil {
		r.mux.Handle("GET /metrics", r.metrics.Handler())
	}

	r.mux.HandleFunc("POST /auth/register", r.handleRegister)
	r.mux.HandleFunc("POST /auth/login", r.handleLogin)
	r.mux.HandleFunc("POST /auth/refresh", r.handleRefresh)
	r.mux.HandleFunc("GET /auth/me", r.requireAuth(r.handleGetMe))
	r.mux.HandleFunc("PUT /auth/me", r.requireAuth(r.handleUpdateMe))
	r.mux.HandleFunc("DELETE /auth/me", r.requireAuth(r.handleDeleteMe))

	r.mux.HandleFunc("POST /chat/message", r.requireAuth(r.handleChatMessage))
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Warn(req.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads a JSON body of at most limit bytes into dst.
func decodeJSON(w http.ResponseWriter, req *http.Request, limit int64, dst any) bool {
	req.Body = http.MaxBytesReader(w, req.Body, limit)
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, detailInvalidBody)
		return false
	}
	return true
}

func (r *Router) recordAuth(operation string, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.AuthResult(operation, outcome(err))
}

// outcome gives a low-cardinality label for a service result.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	status, _ := serviceErrorStatus(err)
	switch status {
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "error"
	}
}
