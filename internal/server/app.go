// Package server wires the configuration, storage backend, services and
// transports together and runs them until the process is asked to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/acl"
	"github.com/dmitrijs2005/meanstack/internal/server/auth"
	"github.com/dmitrijs2005/meanstack/internal/server/chat"
	"github.com/dmitrijs2005/meanstack/internal/server/config"
	"github.com/dmitrijs2005/meanstack/internal/server/graphql"
	"github.com/dmitrijs2005/meanstack/internal/server/httpapi"
	"github.com/dmitrijs2005/meanstack/internal/server/i18n"
	"github.com/dmitrijs2005/meanstack/internal/server/images"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/meanstack/internal/server/seed"
	"github.com/dmitrijs2005/meanstack/internal/server/services"
	"github.com/dmitrijs2005/meanstack/internal/server/storage"

	gs "github.com/dmitrijs2005/meanstack/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

// openRepositories is replaced in tests.
var openRepositories = repomanager.New

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	auth    *services.AuthService
	admin   *services.AdminService
	profile *services.ProfileService
	hub     *chat.Hub
	handler http.Handler
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := openRepositories(ctx, c.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	messages, err := i18n.Load(c.Files().I18n)
	if err != nil {
		_ = repos.Close(ctx)
		return nil, fmt.Errorf("error loading messages: %w", err)
	}

	var authSvc *services.AuthService
	tokens := auth.NewJWTStrategy(c.JWT.Secret, c.JWT.Prefix, c.JWT.TTL, auth.UserLoaderFunc(func(ctx context.Context, id string) (*models.User, error) {
		return authSvc.LoadUser(ctx, id)
	}))
	authSvc = services.NewAuthService(repos, tokens, logger)

	pipeline := images.NewPipeline(storage.NewS3Storage(c.Storage), logger)
	mailer := services.NewMailer(c.Mailer, logger)

	app := &App{
		config:  c,
		logger:  logger,
		repos:   repos,
		auth:    authSvc,
		admin:   services.NewAdminService(repos, logger),
		profile: services.NewProfileService(repos, pipeline, c.Uploads.UserImagePath, logger),
		hub:     chat.NewHub(logger),
	}

	schema, err := graphql.NewSchema(graphql.NewResolver(repos.Users(), authSvc, graphql.NewBroker(), logger))
	if err != nil {
		_ = repos.Close(ctx)
		return nil, fmt.Errorf("error building graphql schema: %w", err)
	}

	app.handler = httpapi.NewRouter(httpapi.Deps{
		Config:    c,
		Logger:    logger,
		Tokens:    tokens,
		Policy:    acl.NewPolicy(acl.NewTable(acl.DefaultRules()...), nil),
		Auth:      authSvc,
		Passwords: services.NewPasswordService(repos, tokens, mailer, c.App.Title, logger),
		Profile:   app.profile,
		Admin:     app.admin,
		Albums:    services.NewAlbumService(repos, pipeline, c.Uploads.UserImagePath, logger),
		Providers: oauthProviders(c),
		Messages:  messages,
		GraphQL:   graphql.NewHandler(schema, logger),
		Chat:      chat.NewHandler(app.hub, tokens),
		Health:    repos.Ping,
	})

	return app, nil
}

// oauthProviders returns the providers that have client credentials.
func oauthProviders(c *config.Config) map[string]*auth.OAuthProvider {
	out := map[string]*auth.OAuthProvider{}
	for _, p := range []*auth.OAuthProvider{
		auth.NewFacebookProvider(auth.Credentials(c.Facebook), c.Domain),
		auth.NewGoogleProvider(auth.Credentials(c.Google), c.Domain),
	} {
		if p.Configured() {
			out[p.Name] = p
		}
	}
	return out
}

// Handler is the root HTTP handler.
func (app *App) Handler() http.Handler { return app.handler }

func (app *App) Migrate(ctx context.Context) error {
	if err := app.repos.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// Seed loads the configured seed files.
func (app *App) Seed(ctx context.Context) error {
	f, err := seed.Load(app.config.Files().Seeds)
	if err != nil {
		return err
	}
	logResults := app.config.Seed.LogResults
	r := repomanager.Repositories{Users: app.repos.Users(), Admins: app.repos.Admins(), Albums: app.repos.Albums()}
	return seed.Run(ctx, r, f, seed.Options{LogResults: &logResults}, app.logger)
}

func (app *App) CreateAdmin(ctx context.Context, in services.NewAdmin) (*models.Admin, string, error) {
	return app.admin.CreateAdmin(ctx, in)
}

func (app *App) Close(ctx context.Context) error {
	return app.repos.Close(ctx)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.Addr(),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr, "tls", app.config.UseTLS(), "env", app.config.Env)

	var err error
	if app.config.UseTLS() {
		err = srv.ListenAndServeTLS(app.config.Secure.Certificate, app.config.Secure.PrivateKey)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.GRPCHealthAddr == "" {
		return
	}

	s := gs.NewHealthServer(app.config.GRPCHealthAddr, app.logger, app.repos.Ping, 0)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves HTTP and gRPC until ctx is cancelled or a signal arrives,
// then drains in-flight work and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "title", app.config.App.Title)

	if app.config.Seed.Enabled && !app.config.IsProduction() {
		if err := app.Seed(ctx); err != nil {
			app.logger.Error(ctx, "seeding failed", "error", err)
		}
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	<-ctx.Done()
	wg.Wait()

	app.hub.Close()
	app.profile.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Close(closeCtx); err != nil {
		return fmt.Errorf("error closing database: %w", err)
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
