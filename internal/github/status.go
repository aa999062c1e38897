// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/pr-warden/internal/core"
)

const checkRunName = "PR-Warden Review"

// StatusUpdater defines the contract for updating the status of a GitHub
// Check Run and posting comments on pull requests.
type StatusUpdater interface {
	InProgress(ctx context.Context, event *core.ReviewEvent, title, summary string) (int64, error)
	Completed(ctx context.Context, event *core.ReviewEvent, checkRunID int64, conclusion, title, summary string) error
	PostSimpleComment(ctx context.Context, event *core.ReviewEvent, body string) error
}

type statusUpdater struct {
	client Client
}

// NewStatusUpdater creates and returns a new instance of a statusUpdater.
func NewStatusUpdater(client Client) StatusUpdater {
	return &statusUpdater{client: client}
}

// PostSimpleComment posts a single, general comment on the pull request.
func (s *statusUpdater) PostSimpleComment(ctx context.Context, event *core.ReviewEvent, body string) error {
	return s.client.CreateComment(ctx, event.Ref.Owner, event.Ref.Repo, event.Ref.PullNumber, body)
}

// InProgress creates a new GitHub Check Run with an "in_progress" status.
func (s *statusUpdater) InProgress(ctx context.Context, event *core.ReviewEvent, title, summary string) (int64, error) {
	opts := github.CreateCheckRunOptions{
		Name:    checkRunName,
		HeadSHA: event.HeadSHA,
		Status:  github.Ptr("in_progress"),
		Output: &github.CheckRunOutput{
			Title:   &title,
			Summary: &summary,
		},
	}
	checkRun, err := s.client.CreateCheckRun(ctx, event.Ref.Owner, event.Ref.Repo, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to create check run: %w", err)
	}
	return checkRun.GetID(), nil
}

// Completed updates an existing GitHub Check Run to a "completed" status.
func (s *statusUpdater) Completed(ctx context.Context, event *core.ReviewEvent, checkRunID int64, conclusion, title, summary string) error {
	now := time.Now()
	opts := github.UpdateCheckRunOptions{
		Status:      github.Ptr("completed"),
		Conclusion:  &conclusion,
		CompletedAt: &github.Timestamp{Time: now},
		Output: &github.CheckRunOutput{
			Title:   &title,
			Summary: &summary,
		},
	}
	_, err := s.client.UpdateCheckRun(ctx, event.Ref.Owner, event.Ref.Repo, checkRunID, opts)
	return err
}
