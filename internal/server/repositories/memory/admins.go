package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

type Admins struct {
	mu   sync.Mutex
	docs map[string]models.Admin
}

func NewAdmins() *Admins {
	return &Admins{docs: make(map[string]models.Admin)}
}

func cloneAdmin(a models.Admin) *models.Admin {
	c := a
	c.Roles = slices.Clone(a.Roles)
	return &c
}

func (r *Admins) Create(_ context.Context, a *models.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, d := range r.docs {
		if id == a.ID {
			return &common.DuplicateKeyError{Field: "_id"}
		}
		if d.Email == a.Email {
			return &common.DuplicateKeyError{Field: "email"}
		}
	}
	r.docs[a.ID] = *cloneAdmin(*a)
	return nil
}

func (r *Admins) GetByID(_ context.Context, id string) (*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.docs[id]; ok {
		return cloneAdmin(d), nil
	}
	return nil, common.ErrorNotFound
}

func (r *Admins) GetByEmail(_ context.Context, email string) (*models.Admin, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, common.ErrorNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.docs {
		if d.Email == email {
			return cloneAdmin(d), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *Admins) CountByEmail(ctx context.Context, email string) (int64, error) {
	if _, err := r.GetByEmail(ctx, email); err != nil {
		return 0, nil
	}
	return 1, nil
}

func (r *Admins) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.docs, id)
	return nil
}
