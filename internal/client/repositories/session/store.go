// Package session keeps the signed-in CLI session in a local SQLite file so
// that a restart does not require logging in again.
//
// Only the email and the refresh token are stored. The access token is
// short-lived and is obtained again through a refresh on startup.
package session

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/zia/internal/client/migrations"
	"github.com/dmitrijs2005/zia/internal/dbx"
	"github.com/dmitrijs2005/zia/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	keyEmail        = "email"
	keyRefreshToken = "refresh_token"
)

// Session is what survives a restart.
type Session struct {
	Email        string
	RefreshToken string
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the session database at path and applies
// its migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("session dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		db.Close()
		return nil, fmt.Errorf("session db migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Load returns the saved session, or nil when there is none.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	r := kv{db: s.db}

	token, err := r.get(ctx, keyRefreshToken)
	if err != nil {
		return nil, err
	}
	if len(token) == 0 {
		return nil, nil
	}
	email, err := r.get(ctx, keyEmail)
	if err != nil {
		return nil, err
	}
	return &Session{Email: string(email), RefreshToken: string(token)}, nil
}

// Save replaces the stored session.
func (s *Store) Save(ctx context.Context, sess Session) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := kv{db: tx}
		if err := r.set(ctx, keyEmail, []byte(sess.Email)); err != nil {
			return err
		}
		return r.set(ctx, keyRefreshToken, []byte(sess.RefreshToken))
	})
}

// Clear forgets the stored session.
func (s *Store) Clear(ctx context.Context) error {
	return kv{db: s.db}.clear(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
