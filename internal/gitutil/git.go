// Package gitutil provides a client for working with Git repositories.
package gitutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Client handles interacting with Git repositories. Clone, fetch, checkout
// and diff shell out to the git CLI; inspection of an already materialized
// workspace goes through go-git.
type Client struct {
	Logger *slog.Logger
}

// NewClient returns a new Client instance.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Logger: logger}
}

// CloneShallow clones a repository into path with a bounded history depth.
func (c *Client) CloneShallow(ctx context.Context, repoURL, path, token string, depth int) error {
	authURL, err := c.getAuthenticatedURL(repoURL, token)
	if err != nil {
		return err
	}

	c.Logger.InfoContext(ctx, "cloning repository", "url", repoURL, "path", path, "depth", depth)
	cmd := exec.CommandContext(ctx, "git", "-c", "core.longpaths=true", "clone", "--depth", fmt.Sprint(depth), authURL, path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git clone failed: %s: %w", string(out), err)
	}
	return nil
}

// FetchPullHead fetches the head ref of a pull request into FETCH_HEAD.
func (c *Client) FetchPullHead(ctx context.Context, path string, number int) error {
	c.Logger.InfoContext(ctx, "fetching pull request head", "pr", number)

	refSpec := fmt.Sprintf("pull/%d/head", number)
	cmd := exec.CommandContext(ctx, "git", "-c", "core.longpaths=true", "fetch", "origin", refSpec)
	cmd.Dir = path
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git fetch %s failed: %s: %w", refSpec, string(out), err)
	}
	return nil
}

// Checkout switches the repository's worktree to a specific ref.
func (c *Client) Checkout(ctx context.Context, path, ref string) error {
	c.Logger.Info("checking out", "ref", ref)

	cmd := exec.CommandContext(ctx, "git", "-c", "core.longpaths=true", "checkout", "--force", ref)
	cmd.Dir = path
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git checkout failed: %s: %w", string(out), err)
	}
	return nil
}

// Diff returns the unified diff of HEAD against the given base revision.
// A base that cannot be resolved (missing branch, no parent commit) yields
// an error; callers decide whether to try another base.
func (c *Client) Diff(ctx context.Context, path, base string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "-c", "core.longpaths=true", "diff", base+"...HEAD")
	cmd.Dir = path
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff against %s failed: %w", base, err)
	}
	return string(out), nil
}

// HeadSHA returns the SHA of the workspace's current HEAD commit.
func (c *Client) HeadSHA(path string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

func (c *Client) getAuthenticatedURL(repoURL, token string) (string, error) {
	// Handle local paths directly. file:// is intentionally unsupported for security.
	if !strings.Contains(repoURL, "://") {
		return repoURL, nil
	}

	if !strings.HasPrefix(repoURL, "https://") && !strings.HasPrefix(repoURL, "http://") {
		return "", fmt.Errorf("invalid repository URL: %s", repoURL)
	}

	if token == "" {
		return repoURL, nil
	}

	parsedURL, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse repository URL '%s': %w", repoURL, err)
	}
	parsedURL.User = url.UserPassword("x-access-token", token)
	return parsedURL.String(), nil
}
