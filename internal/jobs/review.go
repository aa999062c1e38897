// Package jobs defines background tasks such as automated requirement reviews.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/diff"
	"github.com/sevigo/pr-warden/internal/engine"
	"github.com/sevigo/pr-warden/internal/github"
	"github.com/sevigo/pr-warden/internal/review"
	"github.com/sevigo/pr-warden/internal/storage"
	"github.com/sevigo/pr-warden/internal/workspace"
)

// installationClientFunc mints an installation-scoped GitHub client plus the
// raw token. Swapped out in tests.
type installationClientFunc func(ctx context.Context, cfg *config.Config, installationID int64, logger *slog.Logger) (github.Client, string, error)

// ReviewJob runs one requirement review for a webhook event: it
// authenticates as the app installation, reports progress through a check
// run, executes the pipeline, posts the derived comment, and persists the
// result.
type ReviewJob struct {
	cfg        *config.Config
	workspaces *workspace.Manager
	differ     *diff.Deriver
	engine     *engine.Invoker
	store      storage.Store
	newClient  installationClientFunc
	logger     *slog.Logger
}

// NewReviewJob creates a ReviewJob sharing the workspace manager across
// events so concurrent reviews of the same pull request serialize.
func NewReviewJob(cfg *config.Config, workspaces *workspace.Manager, differ *diff.Deriver, eng *engine.Invoker, store storage.Store, logger *slog.Logger) core.Job {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if workspaces == nil {
		panic("workspace manager cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ReviewJob{
		cfg:        cfg,
		workspaces: workspaces,
		differ:     differ,
		engine:     eng,
		store:      store,
		newClient:  github.CreateInstallationClient,
		logger:     logger,
	}
}

// Run executes the review job for a given event.
func (j *ReviewJob) Run(ctx context.Context, event *core.ReviewEvent) error {
	if err := validateEvent(event); err != nil {
		j.logger.Error("invalid review event", "error", err)
		return fmt.Errorf("input validation failed: %w", err)
	}

	j.logger.Info("starting review job", "repo", event.Ref.FullName(), "pr", event.Ref.PullNumber)

	ghClient, token, err := j.newClient(ctx, j.cfg, event.InstallationID, j.logger)
	if err != nil {
		j.logger.Error("failed to create GitHub client", "error", err)
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	if event.HeadSHA == "" {
		meta, err := ghClient.FetchPRInfo(ctx, event.Ref)
		if err != nil {
			return fmt.Errorf("failed to get PR details: %w", err)
		}
		if meta.HeadSHA == "" {
			return fmt.Errorf("PR %d has no valid head SHA", event.Ref.PullNumber)
		}
		event.HeadSHA = meta.HeadSHA
		if event.Ref.CloneURL == "" {
			event.Ref.CloneURL = meta.CloneURL
		}
	}

	statusUpdater := github.NewStatusUpdater(ghClient)
	checkRunID, err := statusUpdater.InProgress(ctx, event, "Requirement Review", "Review in progress...")
	if err != nil {
		j.logger.Error("failed to set in-progress status", "error", err)
		return fmt.Errorf("failed to set in-progress status: %w", err)
	}

	pipeline := review.NewPipeline(ghClient, j.workspaces, j.differ, j.engine, engine.ExtractFindings, token, j.logger)
	result, err := pipeline.Run(ctx, event)
	if err != nil {
		j.updateStatusOnError(ctx, statusUpdater, event, checkRunID, "Review pipeline failed")
		return fmt.Errorf("review pipeline failed: %w", err)
	}

	if err := statusUpdater.PostSimpleComment(ctx, event, result.DraftComment); err != nil {
		j.updateStatusOnError(ctx, statusUpdater, event, checkRunID, "Failed to post review comment")
		return fmt.Errorf("failed to post review comment: %w", err)
	}

	if j.store != nil {
		if err := j.store.SaveResult(ctx, event.Ref, event.HeadSHA, result); err != nil {
			// The review was delivered; persistence is best effort.
			j.logger.Error("failed to persist review result", "error", err)
		}
	}

	summary := fmt.Sprintf("Review finished with %d finding(s)", len(result.Findings))
	if err := statusUpdater.Completed(ctx, event, checkRunID, "success", "Review Complete", summary); err != nil {
		j.logger.Error("failed to update completion status", "error", err)
		return fmt.Errorf("failed to update completion status: %w", err)
	}

	j.logger.Info("review job completed successfully", "repo", event.Ref.FullName(), "pr", event.Ref.PullNumber)
	return nil
}

// validateEvent ensures the event carries everything the pipeline needs.
func validateEvent(event *core.ReviewEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Ref.Owner == "" {
		return fmt.Errorf("repository owner cannot be empty")
	}
	if event.Ref.Repo == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if event.Ref.PullNumber <= 0 {
		return fmt.Errorf("pull request number must be positive, got: %d", event.Ref.PullNumber)
	}
	if event.InstallationID <= 0 {
		return fmt.Errorf("installation ID must be positive, got: %d", event.InstallationID)
	}
	return nil
}

func (j *ReviewJob) updateStatusOnError(ctx context.Context, statusUpdater github.StatusUpdater, event *core.ReviewEvent, checkRunID int64, message string) {
	if err := statusUpdater.Completed(ctx, event, checkRunID, "failure", "Review Failed", message); err != nil {
		j.logger.Error("failed to update failure status", "error", err)
	}
}
