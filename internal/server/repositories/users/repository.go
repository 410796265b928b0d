// Package users persists user accounts. Soft-deleted users are invisible to
// every lookup.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

// Filter narrows List and Count. Empty fields match everything.
type Filter struct {
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByProvider finds the user whose primary or additional provider
	// account has the given id.
	GetByProvider(ctx context.Context, provider, providerID string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	List(ctx context.Context, f Filter, skip, limit int) ([]*models.User, error)
	Count(ctx context.Context, f Filter) (int64, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}
