package acl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

func TestTable_IsAllowed(t *testing.T) {
	t.Parallel()

	table := NewTable(DefaultRules()...)

	tests := []struct {
		name   string
		roles  []string
		path   string
		method string
		want   bool
	}{
		{"user reads me", []string{"user"}, "/api/v1/users/me", "GET", true},
		{"user cannot delete me", []string{"user"}, "/api/v1/users/me", "DELETE", false},
		{"user updates profile", []string{"user"}, "/api/v1/users/profile", "post", true},
		{"user on admin list", []string{"user"}, "/api/users", "GET", false},
		{"admin on admin list", []string{"admin"}, "/api/users", "GET", true},
		{"admin any verb", []string{"admin"}, "/api/users/{userId}", "DELETE", true},
		{"multi role", []string{"user", "admin"}, "/api/users/{userId}", "PUT", true},
		{"guest", nil, "/api/v1/users/me", "GET", false},
		{"unknown role", []string{"root"}, "/api/users", "GET", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.IsAllowed(tt.roles, tt.path, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_WildcardResource(t *testing.T) {
	t.Parallel()

	table := NewTable(Rule{Role: Guest, Resources: []string{Wildcard}, Methods: []string{Wildcard}})

	ok, err := table.IsAllowed(nil, "/anything", "PATCH")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = table.IsAllowed(nil, "", "GET")
	assert.ErrorIs(t, err, ErrEmptyRoute)
}

func TestPolicy_SelfBypass(t *testing.T) {
	t.Parallel()

	p := NewPolicy(NewTable(DefaultRules()...), nil)
	u := &models.User{ID: "u1", Roles: []string{"user"}}

	ok, err := p.Check(context.Background(), Request{
		User: u, Pattern: "/api/users/{userId}", Method: "PUT", Params: map[string]string{"userId": "u1"},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Check(context.Background(), Request{
		User: u, Pattern: "/api/users/{userId}", Method: "PUT", Params: map[string]string{"userId": "u2"},
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPolicy_AddressOwnership(t *testing.T) {
	t.Parallel()

	// Only admins may use the address route via the table; owners pass
	// through the bypass.
	table := NewTable(Rule{Role: models.RoleAdmin, Resources: []string{"/api/v1/users/address/{addressId}"}, Methods: []string{Wildcard}})
	p := NewPolicy(table, nil)
	u := &models.User{ID: "u1", Roles: []string{"user"}, Addresses: []models.Address{{ID: "a1"}}}

	ok, err := p.Check(context.Background(), Request{
		User: u, Pattern: "/api/v1/users/address/{addressId}", Method: "DELETE", Params: map[string]string{"addressId": "a1"},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Check(context.Background(), Request{
		User: u, Pattern: "/api/v1/users/address/{addressId}", Method: "DELETE", Params: map[string]string{"addressId": "a2"},
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPolicy_OwnerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("lookup failed")
	p := NewPolicy(NewTable(), func(context.Context, string, string) (bool, error) { return false, boom })

	_, err := p.Check(context.Background(), Request{
		User: &models.User{ID: "u1"}, Pattern: "/x/{addressId}", Method: "DELETE", Params: map[string]string{"addressId": "a"},
	})
	assert.ErrorIs(t, err, boom)
}
