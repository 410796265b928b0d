package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/server/auth"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

func fbProfile(id, email string) *auth.Profile {
	return &auth.Profile{
		Provider:    models.ProviderFacebook,
		ID:          id,
		Email:       email,
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DisplayName: "Ada L",
		PictureURL:  "//graph.facebook.com/" + id + "/picture?type=large",
		Data:        map[string]any{"id": id},
	}
}

func TestSaveOAuthProfile_CreatesThenReuses(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()

	u, err := svc.SaveOAuthProfile(ctx, fbProfile("fb-1", "ada@example.org"), nil)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderFacebook, u.Provider)
	assert.Equal(t, "//graph.facebook.com/fb-1/picture?type=large", u.ProfileImageURLs.X256)
	assert.Empty(t, u.Password)

	again, err := svc.SaveOAuthProfile(ctx, fbProfile("fb-1", "ada@example.org"), nil)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	n, _ := m.users.Count(ctx, usersFilterAll())
	assert.EqualValues(t, 1, n)
}

func TestSaveOAuthProfile_LinksOnDuplicateEmail(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()

	p, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	u, err := svc.SaveOAuthProfile(ctx, fbProfile("fb-2", "ada@example.org"), nil)
	require.NoError(t, err)
	assert.Equal(t, p.User.ID, u.ID)
	assert.Equal(t, "fb-2", u.AdditionalProvidersData[models.ProviderFacebook]["id"])

	stored, err := m.users.GetByProvider(ctx, models.ProviderFacebook, "fb-2")
	require.NoError(t, err)
	assert.Equal(t, p.User.ID, stored.ID)
	assert.Equal(t, models.ProviderLocal, stored.Provider)
}

func TestSaveOAuthProfile_LoggedInCaller(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()

	p, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)
	caller, err := m.users.GetByID(ctx, p.User.ID)
	require.NoError(t, err)

	linked, err := svc.SaveOAuthProfile(ctx, fbProfile("fb-3", ""), caller)
	require.NoError(t, err)
	assert.Contains(t, linked.AdditionalProvidersData, models.ProviderFacebook)

	_, err = svc.SaveOAuthProfile(ctx, fbProfile("fb-3", ""), caller)
	assert.Equal(t, "User is already connected using this provider", common.ToAppError(err).Message)

	other, err := svc.SaveOAuthProfile(ctx, fbProfile("fb-4", "other@example.org"), nil)
	require.NoError(t, err)
	require.NotEqual(t, caller.ID, other.ID)

	_, err = svc.SaveOAuthProfile(ctx, fbProfile("fb-4", ""), caller)
	assert.Equal(t, "Account is already connected to another user", common.ToAppError(err).Message)
}
