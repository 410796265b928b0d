package repomanager

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Memory(t *testing.T) {
	ctx := context.Background()

	m, err := New(ctx, "memory://")
	require.NoError(t, err)
	require.IsType(t, &MemoryRepositoryManager{}, m)

	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.Ping(ctx))

	err = m.InTx(ctx, func(ctx context.Context, r Repositories) error {
		return r.Users.Create(ctx, &models.User{ID: "u1", Email: "a@example.org"})
	})
	require.NoError(t, err)

	u, err := m.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.org", u.Email)

	require.NoError(t, m.Close(ctx))
}
