package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

type Albums struct {
	mu   sync.Mutex
	docs []models.Album
}

func NewAlbums() *Albums {
	return &Albums{}
}

func (r *Albums) Create(_ context.Context, a *models.Album) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *a
	c.Images = slices.Clone(a.Images)
	r.docs = append(r.docs, c)
	return nil
}

// ListByUser returns the user's albums in insertion order.
func (r *Albums) ListByUser(_ context.Context, userID string) ([]*models.Album, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Album, 0)
	for _, d := range r.docs {
		if d.UserID == userID {
			c := d
			c.Images = slices.Clone(d.Images)
			out = append(out, &c)
		}
	}
	return out, nil
}
