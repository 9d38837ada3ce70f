package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/zia/internal/client/client"
	"github.com/dmitrijs2005/zia/internal/client/repositories/session"
)

type fakeAPI struct {
	tokens client.Tokens

	regEmail, regPassword string
	regName               *string
	authErr               error
	refreshErr            error
	deleteErr             error

	chatReqs  []client.ChatRequest
	chatReply string
	chatErr   error
}

func (f *fakeAPI) Register(_ context.Context, email, password string, name *string) (*client.Tokens, error) {
	f.regEmail, f.regPassword, f.regName = email, password, name
	if f.authErr != nil {
		return nil, f.authErr
	}
	f.tokens = client.Tokens{AccessToken: "a1", RefreshToken: "r1"}
	return &f.tokens, nil
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*client.Tokens, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	f.tokens = client.Tokens{AccessToken: "a1", RefreshToken: "r1"}
	return &f.tokens, nil
}

func (f *fakeAPI) Refresh(context.Context) (*client.Tokens, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if f.tokens.RefreshToken == "" {
		return nil, client.ErrNotSignedIn
	}
	f.tokens = client.Tokens{AccessToken: "a2", RefreshToken: "r2"}
	return &f.tokens, nil
}

func (f *fakeAPI) Me(context.Context) (*client.User, error) {
	return &client.User{ID: "u1", Email: "a@example.com"}, nil
}

func (f *fakeAPI) UpdateName(_ context.Context, name *string) (*client.User, error) {
	return &client.User{ID: "u1", Email: "a@example.com", Name: name}, nil
}

func (f *fakeAPI) DeleteAccount(context.Context) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.tokens = client.Tokens{}
	return nil
}

func (f *fakeAPI) Chat(_ context.Context, req client.ChatRequest) (*client.ChatResponse, error) {
	f.chatReqs = append(f.chatReqs, req)
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return &client.ChatResponse{Content: []client.Block{{Type: "text", Text: f.chatReply}}}, nil
}

func (f *fakeAPI) SetTokens(t client.Tokens) { f.tokens = t }
func (f *fakeAPI) ClearTokens()              { f.tokens = client.Tokens{} }

type memStore struct {
	saved   *session.Session
	loadErr error
	saveErr error
}

func (m *memStore) Load(context.Context) (*session.Session, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.saved == nil {
		return nil, nil
	}
	s := *m.saved
	return &s, nil
}

func (m *memStore) Save(_ context.Context, s session.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = &s
	return nil
}

func (m *memStore) Clear(context.Context) error {
	m.saved = nil
	return nil
}

var errBoom = errors.New("boom")
