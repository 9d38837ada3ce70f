// Package services contains application services for the zia CLI. This file
// defines the account service: sign-up, sign-in, session restore and the
// profile operations, with the refresh token persisted between runs.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zia/internal/client/client"
	"github.com/dmitrijs2005/zia/internal/client/repositories/session"
	"github.com/dmitrijs2005/zia/internal/common"
)

// API is the part of client.HTTPClient the services use.
type API interface {
	Register(ctx context.Context, email, password string, name *string) (*client.Tokens, error)
	Login(ctx context.Context, email, password string) (*client.Tokens, error)
	Refresh(ctx context.Context) (*client.Tokens, error)
	Me(ctx context.Context) (*client.User, error)
	UpdateName(ctx context.Context, name *string) (*client.User, error)
	DeleteAccount(ctx context.Context) error
	Chat(ctx context.Context, req client.ChatRequest) (*client.ChatResponse, error)
	SetTokens(t client.Tokens)
	ClearTokens()
}

// SessionStore persists the session between runs. session.Store implements it.
type SessionStore interface {
	Load(ctx context.Context) (*session.Session, error)
	Save(ctx context.Context, s session.Session) error
	Clear(ctx context.Context) error
}

// AuthService defines account operations for the CLI.
//
// Contract:
//   - Register / Login: obtain tokens and persist the session.
//   - Restore: resume a saved session by refreshing its token.
//   - Me / Rename / Delete: profile of the signed-in account.
//   - Logout: forget the session locally.
type AuthService interface {
	Register(ctx context.Context, email string, password []byte, name *string) error
	Login(ctx context.Context, email string, password []byte) error
	Restore(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
	Me(ctx context.Context) (*client.User, error)
	Rename(ctx context.Context, name *string) (*client.User, error)
	Delete(ctx context.Context) error
	Logout(ctx context.Context) error
}

type authService struct {
	api   API
	store SessionStore
	email string
}

func NewAuthService(api API, store SessionStore) AuthService {
	return &authService{api: api, store: store}
}

func (s *authService) Register(ctx context.Context, email string, password []byte, name *string) error {
	email = common.NormalizeEmail(email)
	t, err := s.api.Register(ctx, email, string(password), name)
	if err != nil {
		return err
	}
	return s.remember(ctx, email, t)
}

func (s *authService) Login(ctx context.Context, email string, password []byte) error {
	email = common.NormalizeEmail(email)
	t, err := s.api.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	return s.remember(ctx, email, t)
}

// Restore loads a saved session and refreshes it. It returns the email of the
// restored account, or "" when there was nothing to restore. A saved session
// the server no longer accepts is dropped.
func (s *authService) Restore(ctx context.Context) (string, error) {
	saved, err := s.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if saved == nil {
		return "", nil
	}

	s.api.SetTokens(client.Tokens{RefreshToken: saved.RefreshToken})
	t, err := s.api.Refresh(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			s.api.ClearTokens()
			return "", s.store.Clear(ctx)
		}
		return "", err
	}
	if err := s.remember(ctx, saved.Email, t); err != nil {
		return "", err
	}
	return saved.Email, nil
}

// Refresh rotates the token pair explicitly.
func (s *authService) Refresh(ctx context.Context) error {
	t, err := s.api.Refresh(ctx)
	if err != nil {
		return err
	}
	return s.remember(ctx, s.email, t)
}

func (s *authService) Me(ctx context.Context) (*client.User, error) {
	return s.api.Me(ctx)
}

func (s *authService) Rename(ctx context.Context, name *string) (*client.User, error) {
	return s.api.UpdateName(ctx, name)
}

func (s *authService) Delete(ctx context.Context) error {
	if err := s.api.DeleteAccount(ctx); err != nil {
		return err
	}
	return s.forget(ctx)
}

func (s *authService) Logout(ctx context.Context) error {
	s.api.ClearTokens()
	return s.forget(ctx)
}

func (s *authService) remember(ctx context.Context, email string, t *client.Tokens) error {
	s.email = email
	if err := s.store.Save(ctx, session.Session{Email: email, RefreshToken: t.RefreshToken}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *authService) forget(ctx context.Context) error {
	s.email = ""
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
