package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/zia/internal/common"
)

// Messages reported in the "detail" field of error bodies.
const (
	detailEmailTaken         = "Email already registered"
	detailWeakPassword       = "Password must be at least 6 characters"
	detailPasswordTooLong    = "Password must be at most 72 bytes"
	detailInvalidCredentials = "Invalid email or password"
	detailInvalidToken       = "Invalid or expired token"
	detailNotAuthenticated   = "Not authenticated"
	detailUserNotFound       = "User not found"
	detailInvalidBody        = "Invalid request body"
	detailInvalidEmail       = "Invalid email address"
	detailUpstreamFailed     = "Failed to get response from AI service"
	detailInternal           = "Internal server error"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeRawJSON writes an already encoded JSON document.
func writeRawJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}

// serviceErrorStatus maps a service error to a status code and detail
// message. Unknown errors are internal.
func serviceErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrAccountExists):
		return http.StatusConflict, detailEmailTaken
	case errors.Is(err, common.ErrWeakPassword):
		return http.StatusBadRequest, detailWeakPassword
	case errors.Is(err, common.ErrPasswordTooLong):
		return http.StatusBadRequest, detailPasswordTooLong
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, detailInvalidCredentials
	case errors.Is(err, common.ErrorUnauthorized):
		if errors.Is(err, common.ErrAccountNotFound) {
			return http.StatusUnauthorized, detailUserNotFound
		}
		return http.StatusUnauthorized, detailInvalidToken
	case errors.Is(err, common.ErrAccountNotFound):
		return http.StatusNotFound, detailUserNotFound
	case errors.Is(err, common.ErrInvalidArguments):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, detailInternal
	}
}

// writeServiceError is the single place where service errors become HTTP
// responses.
func (r *Router) writeServiceError(w http.ResponseWriter, req *http.Request, err error) {
	status, detail := serviceErrorStatus(err)
	if status == http.StatusInternalServerError {
		r.logger.Error(req.Context(), "request failed", "path", req.URL.Path, "error", err)
	} else {
		r.logger.Debug(req.Context(), "request rejected", "path", req.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, detail)
}
