// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"log/slog"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/pr-warden/internal/core"
)

// Client defines the GitHub operations the review pipeline consumes: pull
// request metadata, comments, and check runs.
type Client interface {
	FetchPRInfo(ctx context.Context, ref core.PRReference) (*core.PRMetadata, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) error
	CreateCheckRun(ctx context.Context, owner, repo string, opts github.CreateCheckRunOptions) (*github.CheckRun, error)
	UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts github.UpdateCheckRunOptions) (*github.CheckRun, error)
}

type gitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewGitHubClient wraps the official go-github client to provide a focused,
// testable interface for application-specific GitHub operations.
func NewGitHubClient(client *github.Client, logger *slog.Logger) Client {
	return &gitHubClient{client: client, logger: logger}
}

// NewPATClient creates a new GitHub client authenticated with a Personal Access Token (PAT).
// This is useful for CLI tools or local development where an App installation is not available.
func NewPATClient(ctx context.Context, token string, logger *slog.Logger) Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)
	return &gitHubClient{client: client, logger: logger}
}

// FetchPRInfo retrieves the metadata the context assembler needs for one
// pull request.
func (g *gitHubClient) FetchPRInfo(ctx context.Context, ref core.PRReference) (*core.PRMetadata, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, ref.Owner, ref.Repo, ref.PullNumber)
	if err != nil {
		g.logger.Error("failed to get pull request", "owner", ref.Owner, "repo", ref.Repo, "pr", ref.PullNumber, "error", err)
		return nil, err
	}

	return &core.PRMetadata{
		Title:        pr.GetTitle(),
		Description:  pr.GetBody(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
		HeadSHA:      pr.GetHead().GetSHA(),
		CloneURL:     pr.GetBase().GetRepo().GetCloneURL(),
	}, nil
}

// CreateComment creates a new comment on a pull request.
func (g *gitHubClient) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	comment := &github.IssueComment{Body: &body}
	_, _, err := g.client.Issues.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		g.logger.Error("failed to create comment", "owner", owner, "repo", repo, "pr", number, "error", err)
	}
	return err
}

// CreateCheckRun creates a new check run.
func (g *gitHubClient) CreateCheckRun(ctx context.Context, owner, repo string, opts github.CreateCheckRunOptions) (*github.CheckRun, error) {
	checkRun, _, err := g.client.Checks.CreateCheckRun(ctx, owner, repo, opts)
	if err != nil {
		g.logger.Error("failed to create check run", "owner", owner, "repo", repo, "error", err)
		return nil, err
	}
	return checkRun, nil
}

// UpdateCheckRun updates an existing check run.
func (g *gitHubClient) UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts github.UpdateCheckRunOptions) (*github.CheckRun, error) {
	checkRun, _, err := g.client.Checks.UpdateCheckRun(ctx, owner, repo, checkRunID, opts)
	if err != nil {
		g.logger.Error("failed to update check run", "owner", owner, "repo", repo, "checkRunID", checkRunID, "error", err)
	}
	return checkRun, err
}
