package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/acl"
	"github.com/dmitrijs2005/meanstack/internal/server/auth"
	"github.com/dmitrijs2005/meanstack/internal/server/config"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/meanstack/internal/server/services"
)

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type fakeImages struct{}

func (fakeImages) Process(_ context.Context, _ string, sizes []int, ref string) map[int]string {
	out := map[int]string{}
	for _, s := range sizes {
		out[s] = "https://cdn/" + ref + "/x" + strconv.Itoa(s)
	}
	return out
}

type testAPI struct {
	handler http.Handler
	cfg     *config.Config
	repos   *repomanager.MemoryRepositoryManager
	auth    *services.AuthService
	admin   *services.AdminService
	profile *services.ProfileService
	mailer  *fakeMailer
}

type apiOption func(*Deps)

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()

	cfg := &config.Config{
		App:              config.App{Title: "MEANSTACK"},
		JWT:              config.JWT{Secret: "secret", Prefix: "JWT", TTL: time.Hour},
		OAuthRedirectURL: "/",
		Uploads:          config.Uploads{UserImagePath: t.TempDir(), MaxFileSize: 1 << 20},
		Owasp:            config.Owasp{MinLength: 6, MaxLength: 128, AllowPassphrases: true, MinPhraseLength: 20},
	}

	repos := repomanager.NewMemoryRepositoryManager()
	logger := logging.Nop()

	authSvc := &services.AuthService{}
	tokens := auth.NewJWTStrategy(cfg.JWT.Secret, cfg.JWT.Prefix, cfg.JWT.TTL, auth.UserLoaderFunc(func(ctx context.Context, id string) (*models.User, error) {
		return authSvc.LoadUser(ctx, id)
	}))
	*authSvc = *services.NewAuthService(repos, tokens, logger)

	mailer := &fakeMailer{}
	api := &testAPI{
		cfg:     cfg,
		repos:   repos,
		auth:    authSvc,
		admin:   services.NewAdminService(repos, logger),
		profile: services.NewProfileService(repos, fakeImages{}, cfg.Uploads.UserImagePath, logger),
		mailer:  mailer,
	}

	d := Deps{
		Config:    cfg,
		Logger:    logger,
		Tokens:    tokens,
		Policy:    acl.NewPolicy(acl.NewTable(acl.DefaultRules()...), nil),
		Auth:      authSvc,
		Passwords: services.NewPasswordService(repos, tokens, mailer, cfg.App.Title, logger),
		Profile:   api.profile,
		Admin:     api.admin,
		Albums:    services.NewAlbumService(repos, fakeImages{}, cfg.Uploads.UserImagePath, logger),
		Providers: map[string]*auth.OAuthProvider{},
	}
	for _, o := range opts {
		o(&d)
	}

	api.handler = NewRouter(d)
	return api
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string      `json:"message"`
		Status  int         `json:"status"`
		Code    common.Code `json:"code"`
	} `json:"error"`
}

func (a *testAPI) do(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "JWT "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var res response
	if ct := rec.Header().Get("Content-Type"); ct == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec, res
}

func (a *testAPI) json(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return a.do(t, req, token)
}

type upload struct {
	name        string
	contentType string
	data        []byte
}

func (a *testAPI) multipart(t *testing.T, path, field string, files []upload, token string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(t, req, token)
}

func signupBody() map[string]any {
	return map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.org",
		"password":   "analytical-engine",
		"phone":      "11987654321",
		"state":      "sp",
	}
}

// signup registers the default user and returns the token and user.
func (a *testAPI) signup(t *testing.T) (string, models.SafeUser) {
	t.Helper()
	rec, res := a.json(t, http.MethodPost, "/api/v1/signup", signupBody(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var p services.AuthPayload
	require.NoError(t, json.Unmarshal(res.Data, &p))
	return p.Token, p.User
}

// promote gives the stored user the admin role.
func (a *testAPI) promote(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	u, err := a.repos.Users().GetByID(ctx, id)
	require.NoError(t, err)
	u.Roles = []string{models.RoleUser, models.RoleAdmin}
	require.NoError(t, a.repos.Users().Update(ctx, u))
}
