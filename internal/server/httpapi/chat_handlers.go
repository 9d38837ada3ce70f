package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/zia/internal/common"
	"github.com/dmitrijs2005/zia/internal/server/llm"
	"github.com/dmitrijs2005/zia/internal/server/services"
)

func (r *Router) handleChatMessage(w http.ResponseWriter, req *http.Request) {
	user, _ := currentUser(req.Context())

	var payload services.ChatRequest
	if !decodeJSON(w, req, maxChatBody, &payload) {
		return
	}

	resp, err := r.chat.Send(req.Context(), user.ID, payload)
	r.recordChat(err)
	switch {
	case err == nil:
		writeRawJSON(w, http.StatusOK, resp)
	case errors.Is(err, common.ErrInvalidArguments):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, llm.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		r.logger.Error(req.Context(), "chat proxy error", "user_id", user.ID, "error", err)
		writeError(w, http.StatusBadGateway, detailUpstreamFailed)
	}
}

func (r *Router) recordChat(err error) {
	if r.metrics == nil {
		return
	}
	var se *llm.StatusError
	switch {
	case err == nil:
		r.metrics.ChatResult("ok")
	case errors.Is(err, common.ErrInvalidArguments):
		r.metrics.ChatResult("invalid")
	case errors.Is(err, llm.ErrNotConfigured):
		r.metrics.ChatResult("not_configured")
	case errors.As(err, &se):
		r.metrics.ChatResult("upstream_status")
	default:
		r.metrics.ChatResult("upstream_error")
	}
}
