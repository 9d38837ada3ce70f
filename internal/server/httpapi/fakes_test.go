package httpapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/zia/internal/common"
	"github.com/dmitrijs2005/zia/internal/server/models"
	"github.com/dmitrijs2005/zia/internal/server/services"
)

const validAccess = "good-access"

type fakeAuth struct {
	user *models.User

	registerErr error
	loginErr    error
	refreshErr  error
	resolveErr  error
	updateErr   error
	deleteErr   error

	gotEmail    string
	gotPassword string
	gotName     *string
	gotRefresh  string
	deleted     bool
}

func newFakeAuth() *fakeAuth {
	name := "Ada"
	return &fakeAuth{user: &models.User{ID: "u-1", Email: "a@x.com", Name: &name}}
}

func (f *fakeAuth) pair() *services.TokenPair {
	return &services.TokenPair{AccessToken: "acc", RefreshToken: "ref"}
}

func (f *fakeAuth) Register(ctx context.Context, email, password string, name *string) (*services.TokenPair, error) {
	f.gotEmail, f.gotPassword, f.gotName = email, password, name
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.pair(), nil
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	f.gotEmail, f.gotPassword = email, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.pair(), nil
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	f.gotRefresh = refreshToken
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.pair(), nil
}

func (f *fakeAuth) ResolveCurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	if accessToken != validAccess {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrInvalidToken)
	}
	return f.user, nil
}

func (f *fakeAuth) UpdateProfile(ctx context.Context, user *models.User, name *string) (*models.User, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u := *user
	if name != nil {
		u.Name = name
	}
	return &u, nil
}

func (f *fakeAuth) DeleteAccount(ctx context.Context, user *models.User) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = true
	return nil
}

type fakeChat struct {
	gotUser string
	gotReq  services.ChatRequest
	resp    json.RawMessage
	err     error
}

func (f *fakeChat) Send(ctx context.Context, userID string, req services.ChatRequest) (json.RawMessage, error) {
	f.gotUser, f.gotReq = userID, req
	return f.resp, f.err
}
