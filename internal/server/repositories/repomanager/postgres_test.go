package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/zia/internal/server/migrations"
	"github.com/dmitrijs2005/zia/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type gooseFn = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error

func stubGoose(t *testing.T, target *gooseFn, fn gooseFn) {
	t.Helper()
	orig := *target
	*target = fn
	t.Cleanup(func() { *target = orig })
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	var _ RepositoryManager = NewPostgresRepositoryManager()
}

func TestUsers_ReturnsPostgresRepo(t *testing.T) {
	m := &PostgresRepositoryManager{}
	repo := m.Users(newDB(t))
	require.NotNil(t, repo)
	_, ok := repo.(*users.PostgresRepository)
	assert.True(t, ok)
}

func TestEmbeddedMigrations_Present(t *testing.T) {
	files, err := fs.Glob(migrations.Migrations, "*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "00001_create_users.sql")
}

func TestRunMigrations_Success(t *testing.T) {
	stubGoose(t, &gooseUpContext, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	})

	m := &PostgresRepositoryManager{}
	require.NoError(t, m.RunMigrations(context.Background(), newDB(t)))
}

func TestRunMigrations_Error(t *testing.T) {
	boom := errors.New("boom")
	stubGoose(t, &gooseUpContext, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return boom
	})

	m := &PostgresRepositoryManager{}
	err := m.RunMigrations(context.Background(), newDB(t))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "apply migrations")
}

func TestStatus(t *testing.T) {
	called := false
	stubGoose(t, &gooseStatusContext, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		called = true
		return nil
	})

	m := &PostgresRepositoryManager{}
	require.NoError(t, m.Status(context.Background(), newDB(t)))
	assert.True(t, called)
}

func TestDown_Latest(t *testing.T) {
	called := false
	stubGoose(t, &gooseDownContext, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		called = true
		return nil
	})

	m := &PostgresRepositoryManager{}
	require.NoError(t, m.Down(context.Background(), newDB(t), 0))
	assert.True(t, called)
}

func TestDown_ToVersion(t *testing.T) {
	orig := gooseDownToContext
	t.Cleanup(func() { gooseDownToContext = orig })

	var got int64
	gooseDownToContext = func(ctx context.Context, db *sql.DB, dir string, version int64, opts ...goose.OptionsFunc) error {
		got = version
		return errors.New("locked")
	}

	m := &PostgresRepositoryManager{}
	err := m.Down(context.Background(), newDB(t), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rollback to version 3")
	assert.Equal(t, int64(3), got)
}
