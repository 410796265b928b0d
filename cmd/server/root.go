package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server"
	"github.com/dmitrijs2005/meanstack/internal/server/config"
	"github.com/spf13/cobra"
)

// The config flags are declared here for help output and so cobra accepts
// them; config.Load reads their values from the raw arguments.
func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "path to a JSON config file")
	pf.String("env", "", "environment profile: development, production or test")
	pf.String("host", "", "address to bind the HTTP server")
	pf.Int("port", 0, "HTTP port")
	pf.String("domain", "", "public domain")
	pf.String("dsn", "", "database DSN (mongodb://, postgres:// or memory://)")
	pf.String("jwt-secret", "", "HMAC secret for tokens")
	pf.String("grpc-addr", "", "gRPC health endpoint address")
	pf.String("log-format", "", "json, text, zap or dev")
	pf.String("log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, adminCmd)
}

var rootCmd = &cobra.Command{
	Use:          "meanstack",
	Short:        "meanstack - user accounts, authentication and profiles over REST, GraphQL and WebSockets",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// loadConfig builds the configuration and the logger it selects. The
// returned function flushes the logger.
func loadConfig() (*config.Config, logging.Logger, func() error, error) {
	bootstrap := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	cfg, err := config.Load(os.Args[1:], bootstrap)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config error: %w", err)
	}

	logger, closeLog := logging.New(cfg.LogOptions(), os.Stdout)
	return cfg, logger, closeLog, nil
}

// withApp runs fn against a fully wired application and closes it
// afterwards.
func withApp(ctx context.Context, fn func(ctx context.Context, app *server.App, logger logging.Logger) error) error {
	cfg, logger, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, err.Error())
		return err
	}
	defer func() { _ = app.Close(context.WithoutCancel(ctx)) }()

	return fn(ctx, app, logger)
}
