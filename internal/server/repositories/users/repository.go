package users

import (
	"context"

	"github.com/dmitrijs2005/zia/internal/server/models"
)

// Repository is the account directory. Emails are expected to be normalized
// by the caller.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Insert(ctx context.Context, email, passwordHash string, name *string) (*models.User, error)
	UpdateName(ctx context.Context, id string, name *string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
