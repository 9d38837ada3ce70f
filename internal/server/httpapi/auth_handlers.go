package httpapi

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/zia/internal/common"
	"github.com/dmitrijs2005/zia/internal/server/models"
	"github.com/dmitrijs2005/zia/internal/server/services"
)

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type updateProfileRequest struct {
	Name *string `json:"name"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type userResponse struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

func newTokenResponse(p *services.TokenPair) tokenResponse {
	return tokenResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, TokenType: common.TokenTypeBearer}
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

// validEmail accepts a bare address such as "a@example.com". Display names
// and angle brackets are rejected.
func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	_, domain, ok := strings.Cut(email, "@")
	return ok && strings.Contains(domain, ".")
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var payload registerRequest
	if !decodeJSON(w, req, maxAuthBody, &payload) {
		return
	}
	if !validEmail(payload.Email) {
		writeError(w, http.StatusBadRequest, detailInvalidEmail)
		return
	}

	pair, err := r.auth.Register(req.Context(), payload.Email, payload.Password, payload.Name)
	r.recordAuth("register", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTokenResponse(pair))
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var payload loginRequest
	if !decodeJSON(w, req, maxAuthBody, &payload) {
		return
	}
	if !validEmail(payload.Email) {
		writeError(w, http.StatusBadRequest, detailInvalidEmail)
		return
	}

	pair, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	r.recordAuth("login", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenResponse(pair))
}

func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	var payload refreshRequest
	if !decodeJSON(w, req, maxAuthBody, &payload) {
		return
	}
	if payload.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := r.auth.Refresh(req.Context(), payload.RefreshToken)
	r.recordAuth("refresh", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenResponse(pair))
}

func (r *Router) handleGetMe(w http.ResponseWriter, req *http.Request) {
	user, _ := currentUser(req.Context())
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (r *Router) handleUpdateMe(w http.ResponseWriter, req *http.Request) {
	user, _ := currentUser(req.Context())

	var payload updateProfileRequest
	if !decodeJSON(w, req, maxAuthBody, &payload) {
		return
	}

	updated, err := r.auth.UpdateProfile(req.Context(), user, payload.Name)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(updated))
}

func (r *Router) handleDeleteMe(w http.ResponseWriter, req *http.Request) {
	user, _ := currentUser(req.Context())

	if err := r.auth.DeleteAccount(req.Context(), user); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
