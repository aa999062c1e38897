package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/diff"
)

// PRInfoFetcher resolves pull request metadata from the hosting platform.
type PRInfoFetcher interface {
	FetchPRInfo(ctx context.Context, ref core.PRReference) (*core.PRMetadata, error)
}

// WorkspaceManager acquires and releases isolated working directories for
// in-flight reviews.
type WorkspaceManager interface {
	Acquire(ctx context.Context, ref core.PRReference, token string) (*core.Workspace, error)
	Release(ws *core.Workspace)
}

// DiffDeriver produces the bounded diff document for a workspace.
type DiffDeriver interface {
	Derive(ctx context.Context, dir, preferredBase string) (*core.DiffDocument, error)
}

// Engine invokes the external review tool inside a workspace.
type Engine interface {
	Invoke(ctx context.Context, workDir string) (*core.ToolInvocationResult, error)
}

// FindingParser recovers a validated finding list from raw engine output.
type FindingParser func(raw string, logger *slog.Logger) []core.Finding

// ContextReviewer generates findings straight from the assembled context,
// bypassing the subprocess engine. Used by the direct-API path.
type ContextReviewer interface {
	Review(ctx context.Context, rc core.ReviewContext, storeID string) ([]core.Finding, error)
}

// Pipeline runs one pull request review end to end: resolve metadata,
// acquire a workspace, derive the diff, assemble the context, invoke the
// engine, recover findings, and aggregate the draft comment.
type Pipeline struct {
	fetcher    PRInfoFetcher
	workspaces WorkspaceManager
	differ     DiffDeriver
	engine     Engine
	parse      FindingParser
	token      string
	logger     *slog.Logger
}

// NewPipeline wires the pipeline stages. The token authenticates clone and
// fetch against private repositories and may be empty for public ones.
func NewPipeline(fetcher PRInfoFetcher, workspaces WorkspaceManager, differ DiffDeriver, engine Engine, parse FindingParser, token string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher:    fetcher,
		workspaces: workspaces,
		differ:     differ,
		engine:     engine,
		parse:      parse,
		token:      token,
		logger:     logger,
	}
}

// Run executes the full review for one event. Fatal stages (metadata fetch,
// workspace acquisition, diff derivation) abort with an error; engine
// failures degrade to an empty finding list so the result is still well
// formed. The workspace is released on every exit path.
func (p *Pipeline) Run(ctx context.Context, event *core.ReviewEvent) (*core.ReviewResult, error) {
	return p.run(ctx, event, p.invokeAndRecover)
}

// RunDirect executes the review through a model-backed reviewer instead of
// the subprocess engine. storeID may be empty when no requirement document
// was indexed. Reviewer failures are recoverable and degrade to zero
// findings, matching the engine failure classes.
func (p *Pipeline) RunDirect(ctx context.Context, event *core.ReviewEvent, reviewer ContextReviewer, storeID string) (*core.ReviewResult, error) {
	return p.run(ctx, event, func(ctx context.Context, _ string, rc core.ReviewContext, log *slog.Logger) []core.Finding {
		findings, err := reviewer.Review(ctx, rc, storeID)
		if err != nil {
			log.Error("direct review failed, continuing with zero findings", "error", err)
			return []core.Finding{}
		}
		if findings == nil {
			findings = []core.Finding{}
		}
		return findings
	})
}

type findingsFunc func(ctx context.Context, workDir string, rc core.ReviewContext, log *slog.Logger) []core.Finding

func (p *Pipeline) run(ctx context.Context, event *core.ReviewEvent, generate findingsFunc) (*core.ReviewResult, error) {
	log := p.logger.With("repo", event.Ref.FullName(), "pr", event.Ref.PullNumber)

	meta, err := p.fetcher.FetchPRInfo(ctx, event.Ref)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR metadata for %s: %w", event.Ref.URL(), err)
	}
	if event.Ref.CloneURL == "" {
		event.Ref.CloneURL = meta.CloneURL
	}

	ws, err := p.workspaces.Acquire(ctx, event.Ref, p.token)
	if err != nil {
		return nil, err
	}
	defer p.workspaces.Release(ws)

	repoCfg := p.loadRepoConfig(ws.Path, log)

	doc, err := p.differ.Derive(ctx, ws.Path, repoCfg.PreferredBase)
	if err != nil {
		return nil, err
	}
	if len(repoCfg.ExcludePaths) > 0 {
		doc.Text = diff.FilterPaths(doc.Text, repoCfg.ExcludePaths)
	}

	reqFile, err := StageRequirementDoc(ws.Path, event.RequirementDocPath)
	if err != nil {
		// The review is still meaningful without the document.
		log.Warn("proceeding without requirement document", "error", err)
	}

	rc := BuildContext(meta, *doc, reqFile)
	if err := WriteContextFile(ws.Path, rc); err != nil {
		return nil, err
	}

	findings := generate(ctx, ws.Path, rc, log)

	result := &core.ReviewResult{
		PRURL:        event.Ref.URL(),
		Findings:     findings,
		TalkScript:   BuildTalkScript(findings),
		DraftComment: AggregateComment(findings),
	}
	log.Info("review pipeline finished", "findings", len(findings), "diff_truncated", doc.Truncated)
	return result, nil
}

// invokeAndRecover runs the engine and applies the recovery parser. All
// engine failure classes are recoverable: a timeout yields zero findings, a
// non-zero exit still has its partial output parsed, and a process that
// could not start at all is logged and yields zero findings.
func (p *Pipeline) invokeAndRecover(ctx context.Context, workDir string, _ core.ReviewContext, log *slog.Logger) []core.Finding {
	result, err := p.engine.Invoke(ctx, workDir)
	if err != nil {
		log.Error("review engine could not be run", "error", err)
		return []core.Finding{}
	}
	if result.TimedOut {
		log.Warn("review engine timed out, continuing with zero findings")
		return []core.Finding{}
	}
	if result.ExitCode != 0 {
		log.Warn("review engine exited non-zero, attempting recovery from partial output",
			"exit_code", result.ExitCode, "stderr_bytes", len(result.Stderr))
	}
	findings := p.parse(result.Stdout, p.logger)
	if findings == nil {
		findings = []core.Finding{}
	}
	return findings
}

func (p *Pipeline) loadRepoConfig(workspacePath string, log *slog.Logger) *core.RepoConfig {
	cfg, err := config.LoadRepoConfig(workspacePath)
	switch {
	case err == nil:
		return cfg
	case errors.Is(err, config.ErrConfigNotFound):
		return core.DefaultRepoConfig()
	default:
		log.Warn("ignoring unreadable repository config", "error", err)
		return core.DefaultRepoConfig()
	}
}
