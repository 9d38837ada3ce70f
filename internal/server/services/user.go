// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, issuing/refreshing JWTs and
// the profile operations of an authenticated account.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/zia/internal/common"
	"github.com/dmitrijs2005/zia/internal/dbx"
	"github.com/dmitrijs2005/zia/internal/logging"
	"github.com/dmitrijs2005/zia/internal/server/auth"
	"github.com/dmitrijs2005/zia/internal/server/config"
	"github.com/dmitrijs2005/zia/internal/server/models"
	"github.com/dmitrijs2005/zia/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides authentication-related operations:
//   - Register: create an account and sign it in
//   - Login: verify credentials and mint tokens
//   - Refresh: exchange a refresh token for a new pair
//   - ResolveCurrentUser: map an access token to the live account
//
// Refresh tokens are not stored; a token stays usable until it expires or
// the signing secret changes.
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	hasher                       *auth.Hasher
	codec                        *auth.Codec
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	directoryTimeout             time.Duration
	logger                       logging.Logger
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.Hasher, codec *auth.Codec, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		hasher:                       hasher,
		codec:                        codec,
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		directoryTimeout:             cfg.DirectoryTimeout,
		logger:                       logger.With("module", "user_service"),
	}
}

// Register creates an account and returns a token pair for it. The insert
// and token issuance share one transaction, so a failure leaves no account
// behind.
func (s *UserService) Register(ctx context.Context, email, password string, name *string) (*TokenPair, error) {
	email = common.NormalizeEmail(email)

	_, err := s.findByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrAccountExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	if len(password) < common.MinPasswordLength {
		return nil, common.ErrWeakPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, common.ErrPasswordTooLong) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	ctx, cancel := s.directoryContext(ctx)
	defer cancel()

	var (
		user *models.User
		pair *TokenPair
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).Insert(ctx, email, hash, name)
		if err != nil {
			return err
		}
		pair, err = s.generateTokenPair(user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrAccountExists) {
			return nil, common.ErrAccountExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "account registered", "user_id", user.ID)
	return pair, nil
}

// Login verifies credentials and, on success, returns a new TokenPair. An
// unknown email and a wrong password are indistinguishable to the caller,
// including in how long the call takes.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.findByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Burn(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.generateTokenPair(user)
}

// Refresh validates a refresh token and returns a fresh pair for the same
// account. The presented token is not invalidated.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	user, err := s.userFromToken(ctx, refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(user)
}

// ResolveCurrentUser returns the live account an access token was issued
// for. Email and name are read from storage, not from the token.
func (s *UserService) ResolveCurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	return s.userFromToken(ctx, accessToken, auth.TokenTypeAccess)
}

// UpdateProfile sets the display name of user. A nil name keeps the current
// one.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, name *string) (*models.User, error) {
	ctx, cancel := s.directoryContext(ctx)
	defer cancel()

	updated, err := s.repomanager.Users(s.db).UpdateName(ctx, user.ID, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return updated, nil
}

// DeleteAccount removes user permanently. Tokens already issued for it stop
// resolving because the account lookup fails.
func (s *UserService) DeleteAccount(ctx context.Context, user *models.User) error {
	ctx, cancel := s.directoryContext(ctx)
	defer cancel()

	if err := s.repomanager.Users(s.db).Delete(ctx, user.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrAccountNotFound
		}
		return fmt.Errorf("error deleting user: %w", err)
	}

	s.logger.Info(ctx, "account deleted", "user_id", user.ID)
	return nil
}

// --- helpers below ---

func (s *UserService) directoryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.directoryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.directoryTimeout)
}

func (s *UserService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := s.directoryContext(ctx)
	defer cancel()

	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, err
}

func (s *UserService) userFromToken(ctx context.Context, token string, want auth.TokenType) (*models.User, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return nil, unauthorized(err)
	}
	if claims.Type != want {
		return nil, unauthorized(fmt.Errorf("%w: %s token where %s expected", common.ErrInvalidToken, claims.Type, want))
	}

	ctx, cancel := s.directoryContext(ctx)
	defer cancel()

	user, err := s.repomanager.Users(s.db).FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, unauthorized(common.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

func unauthorized(cause error) error {
	return fmt.Errorf("%w: %w", common.ErrorUnauthorized, cause)
}

func (s *UserService) generateTokenPair(user *models.User) (*TokenPair, error) {
	access, err := s.codec.IssueAccess(user.ID, user.Email, user.Name, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	refresh, err := s.codec.IssueRefresh(user.ID, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
