// Package wire assembles the server application with google/wire.
package wire

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/wire"

	"github.com/sevigo/pr-warden/internal/app"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/db"
	"github.com/sevigo/pr-warden/internal/diff"
	"github.com/sevigo/pr-warden/internal/engine"
	"github.com/sevigo/pr-warden/internal/gitutil"
	"github.com/sevigo/pr-warden/internal/jobs"
	"github.com/sevigo/pr-warden/internal/logger"
	"github.com/sevigo/pr-warden/internal/server"
	"github.com/sevigo/pr-warden/internal/storage"
	"github.com/sevigo/pr-warden/internal/workspace"
)

// AppSet lists every provider the server application needs.
var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	provideServerConfig,
	db.NewDatabase,
	provideStore,
	gitutil.NewClient,
	jobs.NewReviewJob,
	provideDispatcher,
	provideWorkspaceManager,
	provideDeriver,
	provideInvoker,
	provideLoggerConfig,
	provideLogWriter,
	provideDBConfig,
	provideSlogLogger,
)

func provideServerConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideStore(conn *db.DB) storage.Store {
	return storage.NewStore(conn.DB)
}

func provideWorkspaceManager(cfg *config.Config, git *gitutil.Client, log *slog.Logger) *workspace.Manager {
	return workspace.NewManager(cfg.Review.WorkspaceRoot, cfg.Review.CloneDepth, git, log)
}

func provideDeriver(cfg *config.Config, git *gitutil.Client, log *slog.Logger) *diff.Deriver {
	return diff.NewDeriver(git, cfg.Review.MaxDiffChars, log)
}

func provideInvoker(cfg *config.Config, log *slog.Logger) *engine.Invoker {
	return engine.NewInvoker(cfg.Review.ToolCommand, cfg.Review.ToolArgs, cfg.Review.ToolTimeout, log)
}

func provideDispatcher(cfg *config.Config, job core.Job, log *slog.Logger) core.JobDispatcher {
	return jobs.NewDispatcher(job, cfg.Review.MaxWorkers, log)
}

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logging
}

func provideDBConfig(cfg *config.Config) *config.DBConfig {
	return &cfg.Database
}

func provideLogWriter(cfg *config.Config) io.Writer {
	switch cfg.Logging.Output {
	case "stderr":
		return os.Stderr
	case "file":
		f, _ := os.OpenFile("pr-warden.log", os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		return f
	default:
		return os.Stdout
	}
}

func provideSlogLogger(loggerConfig logger.Config, writer io.Writer) *slog.Logger {
	return logger.NewLogger(loggerConfig, writer)
}
