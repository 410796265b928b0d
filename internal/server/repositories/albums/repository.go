// Package albums persists photo albums.
package albums

import (
	"context"

	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, album *models.Album) error
	ListByUser(ctx context.Context, userID string) ([]*models.Album, error)
}
