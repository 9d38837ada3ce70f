package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/zia/internal/dbx"
	"github.com/dmitrijs2005/zia/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
	Status(ctx context.Context, db *sql.DB) error
	Down(ctx context.Context, db *sql.DB, target int64) error
}
