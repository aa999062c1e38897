// Package app ties together the configured components of the PR-Warden
// server: the webhook HTTP server, the job dispatcher, and the database.
package app

import (
	"context"
	"log/slog"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/db"
	"github.com/sevigo/pr-warden/internal/server"
)

// App holds the main application components.
type App struct {
	ctx        context.Context
	cfg        *config.Config
	server     *server.Server
	dispatcher core.JobDispatcher
	dbConn     *db.DB
	logger     *slog.Logger
}

// NewApp assembles the application from already-constructed components.
func NewApp(ctx context.Context, cfg *config.Config, srv *server.Server, dispatcher core.JobDispatcher, dbConn *db.DB, logger *slog.Logger) *App {
	return &App{
		ctx:        ctx,
		cfg:        cfg,
		server:     srv,
		dispatcher: dispatcher,
		dbConn:     dbConn,
		logger:     logger,
	}
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	a.logger.Info("starting PR-Warden",
		"server_port", a.cfg.Server.Port,
		"max_workers", a.cfg.Review.MaxWorkers)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly: the HTTP server first so no new
// work arrives, then the dispatcher so in-flight reviews finish.
func (a *App) Stop() error {
	a.logger.Info("shutting down PR-Warden services")

	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.dispatcher.Stop()

	if serverErr != nil {
		a.logger.Error("PR-Warden stopped with errors", "error", serverErr)
		return serverErr
	}

	a.logger.Info("PR-Warden stopped successfully")
	return nil
}
