// Package auth holds the authentication strategies: bearer JWTs and the
// Facebook and Google OAuth flows.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

// UserLoader resolves the account a token was issued for.
type UserLoader interface {
	LoadUser(ctx context.Context, id string) (*models.User, error)
}

// UserLoaderFunc adapts a function to UserLoader.
type UserLoaderFunc func(ctx context.Context, id string) (*models.User, error)

func (f UserLoaderFunc) LoadUser(ctx context.Context, id string) (*models.User, error) {
	return f(ctx, id)
}

type JWTStrategy struct {
	secret []byte
	prefix string
	ttl    time.Duration
	loader UserLoader
}

func NewJWTStrategy(secret, prefix string, ttl time.Duration, loader UserLoader) *JWTStrategy {
	return &JWTStrategy{secret: []byte(secret), prefix: prefix, ttl: ttl, loader: loader}
}

// Issue signs a token for u with the configured lifetime.
func (s *JWTStrategy) Issue(u *models.User) (string, error) {
	return GenerateToken(u, s.secret, s.ttl)
}

// TokenFromRequest extracts the token from "Authorization: <prefix> <token>"
// (the configured prefix or Bearer) or from the token query parameter.
func (s *JWTStrategy) TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
		if ok && (strings.EqualFold(scheme, s.prefix) || strings.EqualFold(scheme, "Bearer")) {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}

func (s *JWTStrategy) Authenticate(r *http.Request) Result {
	token := s.TokenFromRequest(r)
	if token == "" {
		return Result{Status: Unauthenticated}
	}
	return s.AuthenticateToken(r.Context(), token)
}

// AuthenticateToken verifies token and reloads its user so revoked or
// deleted accounts stop working before the token expires.
func (s *JWTStrategy) AuthenticateToken(ctx context.Context, token string) Result {
	claims, err := ParseToken(token, s.secret)
	if err != nil {
		return failed(err)
	}

	u, err := s.loader.LoadUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return failed(common.ErrInvalidToken)
		}
		return failed(err)
	}

	return authenticated(u)
}
