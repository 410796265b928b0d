package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/cryptox"
	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/users"
)

var (
	errInvalidUserID = common.Unprocessable(common.CodeUserNotFound, "UserId is invalid")
	errNoSuchUser    = common.NewAppError(common.CodeUserNotFound, http.StatusNotFound, "No user with that identifier has been found")
)

// UserUpdate is what an admin may change on a user. Nil roles are left
// unchanged.
type UserUpdate struct {
	FirstName   string
	LastName    string
	DisplayName string
	Roles       []string
}

// AdminService backs the admin API and the admin CLI commands.
type AdminService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAdminService(m repomanager.RepositoryManager, logger logging.Logger) *AdminService {
	return &AdminService{repomanager: m, logger: logger.With("module", "admin_service")}
}

func (s *AdminService) ListUsers(ctx context.Context, p Page) (PageResult[models.SafeUser], error) {
	repo := s.repomanager.Users()

	list, err := repo.List(ctx, users.Filter{}, p.Skip(), p.Limit)
	if err != nil {
		return PageResult[models.SafeUser]{}, err
	}
	total, err := repo.Count(ctx, users.Filter{})
	if err != nil {
		return PageResult[models.SafeUser]{}, err
	}

	safe := make([]models.SafeUser, 0, len(list))
	for _, u := range list {
		safe = append(safe, u.Sanitize())
	}
	return newPageResult(safe, total, p), nil
}

// ResolveUser loads the user addressed by a {userId} route parameter. "me"
// resolves to the caller.
func (s *AdminService) ResolveUser(ctx context.Context, caller *models.User, id string) (*models.User, error) {
	if id == "me" {
		if caller == nil {
			return nil, common.ErrorUnauthorized
		}
		return caller, nil
	}
	if !models.IsValidID(id) {
		return nil, errInvalidUserID
	}

	u, err := s.repomanager.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errNoSuchUser
		}
		return nil, err
	}
	return u, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, u *models.User, in UserUpdate) (*models.User, error) {
	if in.FirstName != "" {
		u.FirstName = in.FirstName
	}
	if in.LastName != "" {
		u.LastName = in.LastName
	}
	if in.DisplayName != "" {
		u.DisplayName = in.DisplayName
	} else if in.FirstName != "" || in.LastName != "" {
		u.DisplayName = u.FirstName + " " + u.LastName
	}
	if in.Roles != nil {
		u.Roles = slices.Clone(in.Roles)
	}

	now := timeNow()
	u.Updated = &now
	if err := u.PrepareSave(false); err != nil {
		return nil, err
	}
	if err := s.repomanager.Users().Update(ctx, u); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return u, nil
}

// DeleteUser soft deletes the user; it disappears from every lookup.
func (s *AdminService) DeleteUser(ctx context.Context, u *models.User) error {
	if err := s.repomanager.Users().SoftDelete(ctx, u.ID, timeNow()); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return errNoSuchUser
		}
		return err
	}
	s.logger.Info(ctx, "user deleted", "user_id", u.ID)
	return nil
}

// NewAdmin is the input of CreateAdmin. An empty password is replaced by a
// generated passphrase, returned by CreateAdmin.
type NewAdmin struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

func (s *AdminService) CreateAdmin(ctx context.Context, in NewAdmin) (*models.Admin, string, error) {
	password := in.Password
	if password == "" {
		p, err := cryptox.GenerateRandomPassphrase()
		if err != nil {
			return nil, "", err
		}
		password = p
	}

	now := timeNow()
	a := &models.Admin{
		ID:        models.NewID(),
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.PrepareSave(true); err != nil {
		return nil, "", err
	}

	if err := s.repomanager.Admins().Create(ctx, a); err != nil {
		return nil, "", fmt.Errorf("error creating admin: %w", err)
	}

	s.logger.Info(ctx, "admin created", "admin_id", a.ID, "email", a.Email)
	return a, password, nil
}
