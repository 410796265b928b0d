package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/auth"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/repomanager"
)

const (
	msgUserNotFound  = "Could not find any user with that email"
	msgWrongPassword = "The password does not match the email you passed"
)

// SignupInput carries the fields a client may set on registration.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Document  string
	Phone     string
	City      string
	State     string
}

// SigninResult holds either a payload or, for accounts created through an
// OAuth provider, the message telling the client which providers to use.
type SigninResult struct {
	Payload *AuthPayload
	Message string
}

// AuthService registers and signs in users and admins.
type AuthService struct {
	repomanager repomanager.RepositoryManager
	tokens      *auth.JWTStrategy
	logger      logging.Logger
}

func NewAuthService(m repomanager.RepositoryManager, tokens *auth.JWTStrategy, logger logging.Logger) *AuthService {
	return &AuthService{repomanager: m, tokens: tokens, logger: logger.With("module", "auth_service")}
}

// Signup creates a local account. Roles are never taken from the client.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthPayload, error) {
	u := &models.User{
		ID:        models.NewID(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
		Document:  in.Document,
		Phone:     in.Phone,
		City:      in.City,
		State:     in.State,
		Provider:  models.ProviderLocal,
		Created:   timeNow(),
	}

	if err := u.PrepareSave(true); err != nil {
		return nil, err
	}

	if err := s.repomanager.Users().Create(ctx, u); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user signed up", "user_id", u.ID)
	return newPayload(s.tokens, u)
}

func (s *AuthService) Signin(ctx context.Context, email, password string) (*SigninResult, error) {
	u, err := s.repomanager.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unprocessable(common.CodeUserNotFound, msgUserNotFound)
		}
		return nil, err
	}

	if u.Provider != models.ProviderLocal {
		providers := append([]string{u.Provider}, slices.Sorted(maps.Keys(u.AdditionalProvidersData))...)
		return &SigninResult{Message: common.ProviderNotLocalPrefix + strings.Join(providers, ",")}, nil
	}

	if !u.Authenticate(password) {
		return nil, common.Unprocessable(common.CodeWrongPassword, msgWrongPassword)
	}

	p, err := newPayload(s.tokens, u)
	if err != nil {
		return nil, err
	}
	return &SigninResult{Payload: p}, nil
}

func (s *AuthService) AdminSignin(ctx context.Context, email, password string) (*AuthPayload, error) {
	a, err := s.repomanager.Admins().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unprocessable(common.CodeUserNotFound, msgUserNotFound)
		}
		return nil, err
	}

	if !a.Authenticate(password) {
		return nil, common.Unprocessable(common.CodeWrongPassword, msgWrongPassword)
	}

	return newPayload(s.tokens, a.AsUser())
}

// LoadUser resolves a token subject: users first, then admins.
func (s *AuthService) LoadUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users().GetByID(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	a, err := s.repomanager.Admins().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.AsUser(), nil
}

// Payload issues a token for an already authenticated user.
func (s *AuthService) Payload(u *models.User) (*AuthPayload, error) {
	return newPayload(s.tokens, u)
}
