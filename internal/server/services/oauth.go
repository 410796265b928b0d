package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/server/auth"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

var (
	errAccountTaken     = &common.AppError{Code: common.CodeUnexpectedAuthorization, Status: http.StatusConflict, Message: "Account is already connected to another user"}
	errAlreadyConnected = &common.AppError{Code: common.CodeUnexpectedAuthorization, Status: http.StatusConflict, Message: "User is already connected using this provider"}
)

// SaveOAuthProfile signs in or registers the owner of an OAuth profile.
// With a current user the provider account is linked to it instead.
func (s *AuthService) SaveOAuthProfile(ctx context.Context, p *auth.Profile, current *models.User) (*models.User, error) {
	repo := s.repomanager.Users()

	existing, err := repo.GetByProvider(ctx, p.Provider, p.ID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	if current != nil {
		if existing != nil {
			if existing.ID != current.ID {
				return nil, errAccountTaken
			}
			return nil, errAlreadyConnected
		}
		return s.linkProvider(ctx, current.ID, p)
	}

	if existing != nil {
		return existing, nil
	}

	u := &models.User{
		ID:          models.NewID(),
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		ProfileImageURLs: models.ProfileImageURLs{
			Original: p.PictureURL,
			X100:     p.PictureURL,
			X256:     p.PictureURL,
		},
		Provider:     p.Provider,
		ProviderData: p.Data,
		Created:      timeNow(),
	}
	if err := u.PrepareSave(false); err != nil {
		return nil, err
	}

	err = repo.Create(ctx, u)
	if err == nil {
		s.logger.Info(ctx, "user registered through oauth", "user_id", u.ID, "provider", p.Provider)
		return u, nil
	}

	var dup *common.DuplicateKeyError
	if errors.As(err, &dup) && dup.Field == "email" && u.Email != "" {
		owner, lookupErr := repo.GetByEmail(ctx, u.Email)
		if lookupErr != nil {
			return nil, fmt.Errorf("error creating user: %w", err)
		}
		return s.linkProvider(ctx, owner.ID, p)
	}

	return nil, fmt.Errorf("error creating user: %w", err)
}

func (s *AuthService) linkProvider(ctx context.Context, userID string, p *auth.Profile) (*models.User, error) {
	repo := s.repomanager.Users()

	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.AdditionalProvidersData == nil {
		u.AdditionalProvidersData = map[string]map[string]any{}
	}
	u.AdditionalProvidersData[p.Provider] = p.Data
	now := timeNow()
	u.Updated = &now

	if err := u.PrepareSave(false); err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	s.logger.Info(ctx, "oauth provider linked", "user_id", u.ID, "provider", p.Provider)
	return u, nil
}
