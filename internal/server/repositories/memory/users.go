// Package memory keeps users, admins and albums in process memory. It
// backs the memory:// DSN used for local development and tests; documents
// are copied on the way in and out like a real store would.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/users"
)

type Users struct {
	mu   sync.Mutex
	docs map[string]models.User
}

func NewUsers() *Users {
	return &Users{docs: make(map[string]models.User)}
}

func cloneUser(u models.User) *models.User {
	c := u
	c.Roles = slices.Clone(u.Roles)
	c.Addresses = slices.Clone(u.Addresses)
	if u.ProviderData != nil {
		c.ProviderData = maps.Clone(u.ProviderData)
	}
	if u.AdditionalProvidersData != nil {
		c.AdditionalProvidersData = make(map[string]map[string]any, len(u.AdditionalProvidersData))
		for k, v := range u.AdditionalProvidersData {
			c.AdditionalProvidersData[k] = maps.Clone(v)
		}
	}
	return &c
}

// normalizeEmail matches the lookup rules of the database backends.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// uniqueErr mirrors the unique indexes on email and phone. Like the
// database indexes it also counts soft-deleted documents.
func (r *Users) uniqueErr(u *models.User) error {
	for id, d := range r.docs {
		if id == u.ID {
			continue
		}
		if u.Email != "" && d.Email == u.Email {
			return &common.DuplicateKeyError{Field: "email"}
		}
		if u.Phone != "" && d.Phone == u.Phone {
			return &common.DuplicateKeyError{Field: "phone"}
		}
	}
	return nil
}

func (r *Users) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[u.ID]; ok {
		return &common.DuplicateKeyError{Field: "_id"}
	}
	if err := r.uniqueErr(u); err != nil {
		return err
	}
	r.docs[u.ID] = *cloneUser(*u)
	return nil
}

func (r *Users) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[u.ID]
	if !ok || d.Deleted != nil {
		return common.ErrorNotFound
	}
	if err := r.uniqueErr(u); err != nil {
		return err
	}
	r.docs[u.ID] = *cloneUser(*u)
	return nil
}

func (r *Users) find(pred func(models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.docs {
		if d.Deleted == nil && pred(d) {
			return cloneUser(d), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	return r.find(func(u models.User) bool { return email != "" && u.Email == email })
}

func (r *Users) GetByProvider(_ context.Context, provider, providerID string) (*models.User, error) {
	return r.find(func(u models.User) bool {
		if u.Provider == provider && u.ProviderData["id"] == providerID {
			return true
		}
		return u.AdditionalProvidersData[provider]["id"] == providerID
	})
}

func (r *Users) GetByResetToken(_ context.Context, token string, now time.Time) (*models.User, error) {
	return r.find(func(u models.User) bool {
		return token != "" && u.ResetPasswordToken == token &&
			u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now)
	})
}

func matches(u models.User, f users.Filter) bool {
	if u.Deleted != nil {
		return false
	}
	if f.Email != "" && u.Email != normalizeEmail(f.Email) {
		return false
	}
	return f.Role == "" || u.HasRole(f.Role)
}

// List returns matching users newest first, the order of the database
// backends.
func (r *Users) List(_ context.Context, f users.Filter, skip, limit int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]models.User, 0, len(r.docs))
	for _, d := range r.docs {
		if matches(d, f) {
			all = append(all, d)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Created.Equal(all[j].Created) {
			return all[i].Created.After(all[j].Created)
		}
		return all[i].ID < all[j].ID
	})

	out := make([]*models.User, 0)
	for i := max(skip, 0); i < len(all) && (limit <= 0 || len(out) < limit); i++ {
		out = append(out, cloneUser(all[i]))
	}
	return out, nil
}

func (r *Users) Count(_ context.Context, f users.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, d := range r.docs {
		if matches(d, f) {
			n++
		}
	}
	return n, nil
}

func (r *Users) SoftDelete(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[id]
	if !ok || d.Deleted != nil {
		return common.ErrorNotFound
	}
	d.Deleted = &at
	r.docs[id] = d
	return nil
}

func (r *Users) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.docs, id)
	return nil
}
