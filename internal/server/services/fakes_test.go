package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/zia/internal/common"
	"github.com/dmitrijs2005/zia/internal/dbx"
	"github.com/dmitrijs2005/zia/internal/logging"
	"github.com/dmitrijs2005/zia/internal/server/auth"
	"github.com/dmitrijs2005/zia/internal/server/config"
	"github.com/dmitrijs2005/zia/internal/server/models"
	"github.com/dmitrijs2005/zia/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// memUsers is an in-memory users.Repository. The email uniqueness check and
// the insert happen under one lock, like a UNIQUE index.
type memUsers struct {
	mu   sync.Mutex
	byID map[string]models.User

	findErr   error
	insertErr error
	block     bool
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]models.User{}}
}

func (m *memUsers) wait(ctx context.Context) error {
	if !m.block {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (m *memUsers) Insert(ctx context.Context, email, passwordHash string, name *string) (*models.User, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return nil, common.ErrAccountExists
		}
	}
	now := time.Now().UTC()
	u := models.User{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash, Name: name, CreatedAt: now, UpdatedAt: now}
	m.byID[u.ID] = u
	return &u, nil
}

func (m *memUsers) UpdateName(ctx context.Context, id string, name *string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if name != nil {
		n := *name
		u.Name = &n
		u.UpdatedAt = time.Now().UTC()
		m.byID[id] = u
	}
	return &u, nil
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) setHash(email, hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.byID {
		if u.Email == email {
			u.PasswordHash = hash
			m.byID[id] = u
		}
	}
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type fakeRepoManager struct {
	u *memUsers
}

func (f *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return f.u }
func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Status(context.Context, *sql.DB) error        { return nil }
func (f *fakeRepoManager) Down(context.Context, *sql.DB, int64) error   { return nil }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenValidityDuration:  30 * time.Minute,
		RefreshTokenValidityDuration: 30 * 24 * time.Hour,
		DirectoryTimeout:             time.Second,
	}
}

type testEnv struct {
	svc   *UserService
	repo  *memUsers
	clock *fakeClock
	codec *auth.Codec
	db    *sql.DB
}

func newTestEnv(t *testing.T, secret string) *testEnv {
	t.Helper()
	return newTestEnvWith(t, secret, newMemUsers(), newSQLiteDB(t), testConfig())
}

func newTestEnvWith(t *testing.T, secret string, repo *memUsers, db *sql.DB, cfg *config.Config) *testEnv {
	t.Helper()
	hasher, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Now().Truncate(time.Second)}
	codec, err := auth.NewCodec(secret, "HS256", auth.WithClock(clock.Now))
	require.NoError(t, err)

	svc := NewUserService(db, &fakeRepoManager{u: repo}, hasher, codec, cfg, logging.Nop())
	return &testEnv{svc: svc, repo: repo, clock: clock, codec: codec, db: db}
}

func strPtr(s string) *string { return &s }
