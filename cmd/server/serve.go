package main

import (
	"context"

	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP, GraphQL, chat and gRPC health servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = closeLog() }()

		ctx := cmd.Context()

		app, err := server.NewApp(ctx, cfg, logger)
		if err != nil {
			logger.Error(ctx, err.Error())
			return err
		}

		return app.Run(ctx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Applies database migrations (SQL for Postgres, indexes for MongoDB)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *server.App, logger logging.Logger) error {
			if err := app.Migrate(ctx); err != nil {
				return err
			}
			logger.Info(ctx, "migrations applied")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Loads the configured YAML seed files into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *server.App, _ logging.Logger) error {
			return app.Seed(ctx)
		})
	},
}
