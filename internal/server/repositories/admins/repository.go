// Package admins persists operator accounts.
package admins

import (
	"context"

	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByID(ctx context.Context, id string) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	CountByEmail(ctx context.Context, email string) (int64, error)
	Delete(ctx context.Context, id string) error
}
