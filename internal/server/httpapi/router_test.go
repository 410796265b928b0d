package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/server/acl"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/services"
)

func TestHealthzAndNotFound(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.json(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec, res := api.json(t, http.MethodGet, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, res.Success)
}

func TestHealthz_Unavailable(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) {
		d.Health = func(context.Context) error { return errors.New("db down") }
	})

	rec, _ := api.json(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestACL_UserCannotReachAdminRoutes(t *testing.T) {
	api := newTestAPI(t)
	token, u := api.signup(t)

	rec, res := api.json(t, http.MethodGet, "/api/users", nil, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, common.CodeUserNotAuthorized, res.Error.Code)
	assert.Equal(t, "The user has no authorization to access this route", res.Error.Message)

	other := &models.User{ID: models.NewID(), Email: "other@example.org", Provider: models.ProviderGoogle, Roles: []string{models.RoleUser}}
	require.NoError(t, api.repos.Users().Create(context.Background(), other))
	rec, _ = api.json(t, http.MethodGet, "/api/users/"+other.ID, nil, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, res = api.json(t, http.MethodGet, "/api/users/"+u.ID, nil, token)
	require.Equal(t, http.StatusOK, rec.Code, "own id bypasses the table")
	assert.Equal(t, u.ID, decodeUser(t, res.Data).ID)
}

func TestACL_PolicyErrorIsUnexpected(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) {
		d.Policy = acl.NewPolicy(acl.NewTable(acl.DefaultRules()...), func(context.Context, string, string) (bool, error) {
			return false, errors.New("lookup failed")
		})
	})
	token, _ := api.signup(t)

	rec, res := api.json(t, http.MethodDelete, "/api/v1/users/address/"+models.NewID(), nil, token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, common.CodeUnexpectedAuthorization, res.Error.Code)
	assert.Equal(t, "Unexpected authorization error", res.Error.Message)
}

func TestAdminUsers(t *testing.T) {
	api := newTestAPI(t)
	token, u := api.signup(t)
	api.promote(t, u.ID)

	for i := 0; i < 3; i++ {
		other := &models.User{ID: models.NewID(), FirstName: "U", LastName: "X", Provider: models.ProviderGoogle, Roles: []string{models.RoleUser}}
		require.NoError(t, api.repos.Users().Create(context.Background(), other))
	}

	rec, res := api.json(t, http.MethodGet, "/api/users?page=1&limit=2", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page services.PageResult[models.SafeUser]
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 4, page.Total)
	assert.EqualValues(t, 2, page.Pages)

	rec, res = api.json(t, http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID, decodeUser(t, res.Data).ID)

	rec, res = api.json(t, http.MethodGet, "/api/users/not-an-id", nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "UserId is invalid", res.Error.Message)

	target := page.Items[1].ID
	if target == u.ID {
		target = page.Items[0].ID
	}

	rec, res = api.json(t, http.MethodPut, "/api/users/"+target, map[string]any{"first_name": "Grace", "roles": []string{"user", "admin"}}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeUser(t, res.Data)
	assert.Equal(t, "Grace X", updated.DisplayName)
	assert.Contains(t, updated.Roles, models.RoleAdmin)

	rec, res = api.json(t, http.MethodPut, "/api/users/"+target, map[string]any{"roles": []string{}}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, common.CodeMissingParams, res.Error.Code)

	rec, _ = api.json(t, http.MethodDelete, "/api/users/"+target, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, res = api.json(t, http.MethodGet, "/api/users/"+target, nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No user with that identifier has been found", res.Error.Message)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.MkdirAll(filepath.Join("public", "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("public", "images", "logo.txt"), []byte("logo"), 0o644))

	rec := httptest.NewRecorder()
	publicFiles([]string{"public/images/logo.txt"})(rec, httptest.NewRequest(http.MethodGet, "/public/images/logo.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logo", rec.Body.String())

	rec = httptest.NewRecorder()
	publicFiles([]string{"public/images/logo.txt"})(rec, httptest.NewRequest(http.MethodGet, "/public/secret.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadsAreServed(t *testing.T) {
	api := newTestAPI(t)
	token, u := api.signup(t)

	rec, res := api.multipart(t, "/api/v1/users/picture", uploadField, []upload{{"me.png", "image/png", pngBytes(t)}}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	api.profile.Wait()

	url := decodeUser(t, res.Data).ProfileImageURLs.Original
	rec, _ = api.json(t, http.MethodGet, url, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes(t), rec.Body.Bytes())

	rec, _ = api.json(t, http.MethodGet, uploadPrefix(api.cfg.Uploads.UserImagePath)+"/"+u.ID+"/", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadPrefix(t *testing.T) {
	assert.Equal(t, "/uploads/users/profile", uploadPrefix("./uploads/users/profile"))
	assert.Equal(t, "/uploads", uploadPrefix("uploads/"))
	assert.Equal(t, "/var/data", uploadPrefix("/var/data"))
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/signin", nil)
	req.Header.Set("Origin", "http://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
