package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/cryptox"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/admins"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/users"
	"gopkg.in/yaml.v3"
)

// person is the document shape shared by user and admin seeds.
type person struct {
	FirstName   string   `yaml:"first_name"`
	LastName    string   `yaml:"last_name"`
	DisplayName string   `yaml:"display_name"`
	Email       string   `yaml:"email"`
	Password    string   `yaml:"password"`
	Phone       string   `yaml:"phone"`
	Document    string   `yaml:"document"`
	City        string   `yaml:"city"`
	State       string   `yaml:"state"`
	Roles       []string `yaml:"roles"`
}

// password returns the seeded password, generating one when the document
// has none. generated reports whether it was generated.
func (p person) password() (string, bool, error) {
	if p.Password != "" {
		return p.Password, false, nil
	}
	pw, err := cryptox.GenerateRandomPassphrase()
	return pw, true, err
}

func added(model, email, password string, generated bool) string {
	if generated {
		return fmt.Sprintf("Database Seeding: %s\t %s added with password set to %s", model, email, password)
	}
	return fmt.Sprintf("Database Seeding: %s\t %s added", model, email)
}

func skipped(model, email string) string {
	return fmt.Sprintf("Database Seeding: %s\t %s skipped", model, email)
}

type userSeeder struct {
	repo users.Repository
}

func (s *userSeeder) skip(ctx context.Context, when *yaml.Node) (bool, error) {
	var f users.Filter
	if err := when.Decode(&f); err != nil {
		return false, fmt.Errorf("error decoding User skip filter: %w", err)
	}
	n, err := s.repo.Count(ctx, f)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *userSeeder) seed(ctx context.Context, data *yaml.Node, overwrite bool) (string, error) {
	var p person
	if err := data.Decode(&p); err != nil {
		return "", fmt.Errorf("error decoding User seed: %w", err)
	}
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))

	existing, err := s.repo.GetByEmail(ctx, p.Email)
	switch {
	case err == nil && !overwrite:
		return skipped("User", p.Email), nil
	case err == nil:
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return "", err
		}
	case !errors.Is(err, common.ErrorNotFound):
		return "", err
	}

	password, generated, err := p.password()
	if err != nil {
		return "", err
	}

	u := &models.User{
		ID:          models.NewID(),
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Password:    password,
		Phone:       p.Phone,
		Document:    p.Document,
		City:        p.City,
		State:       p.State,
		Roles:       p.Roles,
		Provider:    models.ProviderLocal,
		Created:     timeNow(),
	}
	if err := u.PrepareSave(true); err != nil {
		return "", err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return "", err
	}

	return added("User", u.Email, password, generated), nil
}

type adminSeeder struct {
	repo admins.Repository
}

func (s *adminSeeder) skip(ctx context.Context, when *yaml.Node) (bool, error) {
	var f struct {
		Email string `yaml:"email"`
	}
	if err := when.Decode(&f); err != nil {
		return false, fmt.Errorf("error decoding Admin skip filter: %w", err)
	}
	n, err := s.repo.CountByEmail(ctx, f.Email)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *adminSeeder) seed(ctx context.Context, data *yaml.Node, overwrite bool) (string, error) {
	var p person
	if err := data.Decode(&p); err != nil {
		return "", fmt.Errorf("error decoding Admin seed: %w", err)
	}
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))

	existing, err := s.repo.GetByEmail(ctx, p.Email)
	switch {
	case err == nil && !overwrite:
		return skipped("Admin", p.Email), nil
	case err == nil:
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return "", err
		}
	case !errors.Is(err, common.ErrorNotFound):
		return "", err
	}

	password, generated, err := p.password()
	if err != nil {
		return "", err
	}

	now := timeNow()
	a := &models.Admin{
		ID:          models.NewID(),
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Password:    password,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.PrepareSave(true); err != nil {
		return "", err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return "", err
	}

	return added("Admin", a.Email, password, generated), nil
}
