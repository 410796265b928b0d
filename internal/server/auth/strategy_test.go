package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

func newStrategy(users map[string]*models.User) *JWTStrategy {
	return NewJWTStrategy("secret", "JWT", time.Hour, UserLoaderFunc(func(_ context.Context, id string) (*models.User, error) {
		if u, ok := users[id]; ok {
			return u, nil
		}
		return nil, common.ErrorNotFound
	}))
}

func TestTokenFromRequest(t *testing.T) {
	t.Parallel()

	s := newStrategy(nil)

	tests := []struct {
		name   string
		header string
		target string
		want   string
	}{
		{"prefix", "JWT abc", "/", "abc"},
		{"bearer", "Bearer abc", "/", "abc"},
		{"query", "", "/?token=q", "q"},
		{"unknown scheme falls back to query", "Basic zzz", "/?token=q", "q"},
		{"none", "", "/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, s.TokenFromRequest(r))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	u := testUser()
	s := newStrategy(map[string]*models.User{u.ID: u})

	tok, err := s.Issue(u)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, Unauthenticated, s.Authenticate(r).Status)

	r.Header.Set("Authorization", "JWT "+tok)
	res := s.Authenticate(r)
	require.Equal(t, Authenticated, res.Status)
	assert.Same(t, u, res.User)
}

func TestAuthenticateToken_UnknownUser(t *testing.T) {
	t.Parallel()

	s := newStrategy(nil)
	tok, err := s.Issue(testUser())
	require.NoError(t, err)

	res := s.AuthenticateToken(context.Background(), tok)
	assert.Equal(t, Failed, res.Status)
	assert.ErrorIs(t, res.Err, common.ErrInvalidToken)
}

func TestAuthenticateToken_LoaderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	s := NewJWTStrategy("secret", "JWT", time.Hour, UserLoaderFunc(func(context.Context, string) (*models.User, error) {
		return nil, boom
	}))
	tok, err := s.Issue(testUser())
	require.NoError(t, err)

	res := s.AuthenticateToken(context.Background(), tok)
	assert.Equal(t, Failed, res.Status)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, "failed", res.Status.String())
}
