// Package httpapi exposes the REST API over chi. Handlers decode and
// validate requests, call the services and render the response envelope.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/acl"
	"github.com/dmitrijs2005/meanstack/internal/server/auth"
	"github.com/dmitrijs2005/meanstack/internal/server/config"
	"github.com/dmitrijs2005/meanstack/internal/server/i18n"
	"github.com/dmitrijs2005/meanstack/internal/server/services"
)

// Deps are the collaborators of the HTTP API. GraphQL and Chat are
// optional; when nil their routes are not mounted. Health reports the
// readiness of the backing store.
type Deps struct {
	Config    *config.Config
	Logger    logging.Logger
	Tokens    *auth.JWTStrategy
	Policy    *acl.Policy
	Auth      *services.AuthService
	Passwords *services.PasswordService
	Profile   *services.ProfileService
	Admin     *services.AdminService
	Albums    *services.AlbumService
	Providers map[string]*auth.OAuthProvider
	Messages  *i18n.Catalog
	GraphQL   http.Handler
	Chat      http.Handler
	Health    func(context.Context) error
}

type Handler struct {
	cfg       *config.Config
	logger    logging.Logger
	tokens    *auth.JWTStrategy
	policy    *acl.Policy
	auth      *services.AuthService
	passwords *services.PasswordService
	profile   *services.ProfileService
	admin     *services.AdminService
	albums    *services.AlbumService
	providers map[string]*auth.OAuthProvider
	messages  *i18n.Catalog
	validator *Validator
	health    func(context.Context) error
}

func NewHandler(d Deps) *Handler {
	messages := d.Messages
	if messages == nil {
		messages = i18n.Default()
	}
	logger := d.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &Handler{
		cfg:       d.Config,
		logger:    logger.With("module", "httpapi"),
		tokens:    d.Tokens,
		policy:    d.Policy,
		auth:      d.Auth,
		passwords: d.Passwords,
		profile:   d.Profile,
		admin:     d.Admin,
		albums:    d.Albums,
		providers: d.Providers,
		messages:  messages,
		validator: NewValidator(d.Config.Owasp, messages),
		health:    d.Health,
	}
}
