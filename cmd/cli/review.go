package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/sevigo/goframe/embeddings"
	"github.com/sevigo/goframe/llms/ollama"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/diff"
	"github.com/sevigo/pr-warden/internal/engine"
	"github.com/sevigo/pr-warden/internal/github"
	"github.com/sevigo/pr-warden/internal/gitutil"
	"github.com/sevigo/pr-warden/internal/llm"
	"github.com/sevigo/pr-warden/internal/logger"
	"github.com/sevigo/pr-warden/internal/retrieval"
	"github.com/sevigo/pr-warden/internal/review"
	"github.com/sevigo/pr-warden/internal/workspace"
)

var (
	verbose bool
	direct  bool
	docPath string
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.FgHiBlack)
)

var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Run a requirement review for a GitHub Pull Request",
	Long: `Run a requirement review for a GitHub Pull Request.

The review command clones the PR head into an isolated workspace, derives the
diff against the default branch, and checks the changes against the optional
requirement document. By default the configured external review engine is
invoked; with --direct the configured model API is queried instead.

Examples:
  warden review https://github.com/owner/repo/pull/123
  warden review --doc requirements.md https://github.com/owner/repo/pull/123
  warden review --direct --doc requirements.md https://github.com/owner/repo/pull/123`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")
	reviewCmd.Flags().BoolVar(&direct, "direct", false, "Query the model API directly instead of the external engine")
	reviewCmd.Flags().StringVar(&docPath, "doc", "", "Path to a requirement document to review against")
	rootCmd.AddCommand(reviewCmd)
}

// stepTimer tracks timing for verbose output
type stepTimer struct {
	stepNum    int
	totalSteps int
	start      time.Time
	verbose    bool
}

func newStepTimer(totalSteps int, verbose bool) *stepTimer {
	return &stepTimer{totalSteps: totalSteps, verbose: verbose}
}

func (t *stepTimer) step(name string) {
	t.stepNum++
	t.start = time.Now()
	if t.verbose {
		titleColor.Printf("\nStep %d/%d: %s...\n", t.stepNum, t.totalSteps, name)
	} else {
		fmt.Printf("%s...\n", name)
	}
}

func (t *stepTimer) done(details ...string) {
	if t.verbose {
		elapsed := time.Since(t.start).Round(time.Millisecond)
		successColor.Printf("   done (%s)\n", elapsed)
		for _, d := range details {
			dimColor.Printf("   %s\n", d)
		}
	}
}

func runReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	prURL := args[0]

	timer := newStepTimer(3, verbose)
	overallStart := time.Now()

	titleColor.Println("PR-Warden - Requirement Review")
	dimColor.Printf("   Target: %s\n\n", prURL)

	timer.step("Loading configuration")
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewLogger(cfg.Logging, os.Stderr)

	ref, err := gitutil.ParsePullRequestURL(prURL)
	if err != nil {
		return fmt.Errorf("invalid PR URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
	}

	token := viper.GetString("GITHUB_TOKEN")
	if token == "" {
		token = cfg.GitHub.Token
	}
	if token == "" {
		return fmt.Errorf("GITHUB_TOKEN is not set\n\nTip: Set PW_GITHUB_TOKEN or pass --github-token")
	}
	timer.done()

	ghClient := github.NewPATClient(ctx, token, log)
	gitClient := gitutil.NewClient(log)
	workspaces := workspace.NewManager(cfg.Review.WorkspaceRoot, cfg.Review.CloneDepth, gitClient, log)
	differ := diff.NewDeriver(gitClient, cfg.Review.MaxDiffChars, log)
	invoker := engine.NewInvoker(cfg.Review.ToolCommand, cfg.Review.ToolArgs, cfg.Review.ToolTimeout, log)
	pipeline := review.NewPipeline(ghClient, workspaces, differ, invoker, engine.ExtractFindings, token, log)

	event := &core.ReviewEvent{Ref: ref, RequirementDocPath: docPath}

	timer.step("Running review")
	var result *core.ReviewResult
	if direct {
		result, err = runDirectReview(ctx, cfg, pipeline, event, log)
	} else {
		result, err = pipeline.Run(ctx, event)
	}
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}
	timer.done(fmt.Sprintf("findings: %d", len(result.Findings)))

	timer.step("Rendering result")
	rendered, err := glamour.Render(result.DraftComment, "dark")
	if err != nil {
		// Fall back to the raw Markdown.
		rendered = result.DraftComment
	}
	timer.done()

	if verbose {
		dimColor.Printf("\nTotal time: %s\n", time.Since(overallStart).Round(time.Millisecond))
	}

	fmt.Println(rendered)
	if result.TalkScript != "" {
		warnColor.Println("Talk script:")
		fmt.Println(result.TalkScript)
	}
	return nil
}

// runDirectReview queries the configured model API, optionally augmented
// with passages retrieved from an indexed requirement document.
func runDirectReview(ctx context.Context, cfg *config.Config, pipeline *review.Pipeline, event *core.ReviewEvent, log *slog.Logger) (*core.ReviewResult, error) {
	model, err := llm.NewModel(ctx, cfg.AI, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	prompts, err := llm.NewPromptManager()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	var searcher llm.Searcher
	var storeID string
	if event.RequirementDocPath != "" && cfg.AI.QdrantHost != "" {
		stores, err := newStoreService(cfg, log)
		if err != nil {
			log.Warn("retrieval store unavailable, reviewing without augmentation", "error", err)
		} else {
			content, err := os.ReadFile(event.RequirementDocPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read requirement document: %w", err)
			}
			indexer := retrieval.NewIndexer(stores, retrieval.Policy{
				Interval:    cfg.Review.IndexPollInterval,
				MaxAttempts: cfg.Review.IndexMaxAttempts,
			}, log)
			storeID, err = indexer.Index(ctx, event.Ref.Key(), content)
			if err != nil {
				// Indexing problems are recoverable: review without augmentation.
				log.Warn("requirement document not indexed, reviewing without augmentation", "error", err)
				storeID = ""
			} else {
				searcher = stores
				defer func() {
					if err := stores.DeleteStore(context.Background(), storeID); err != nil {
						log.Warn("failed to delete review store", "store", storeID, "error", err)
					}
				}()
			}
		}
	}

	reviewer := llm.NewDirectReviewer(model, prompts, llm.ModelProvider(cfg.AI.Provider), searcher, log)
	return pipeline.RunDirect(ctx, event, reviewer, storeID)
}

func newStoreService(cfg *config.Config, log *slog.Logger) (*retrieval.QdrantStoreService, error) {
	embedderLLM, err := ollama.New(
		ollama.WithServerURL(cfg.AI.OllamaHost),
		ollama.WithModel(cfg.AI.EmbedderModel),
		ollama.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder LLM: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(embedderLLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return retrieval.NewQdrantStoreService(cfg.AI.QdrantHost, embedder, log), nil
}
