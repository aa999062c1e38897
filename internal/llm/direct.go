package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/engine"
)

const (
	generationTimeout = 5 * time.Minute

	// retrievalDocs is how many requirement passages are pulled into the
	// prompt when a store is available.
	retrievalDocs = 5
)

// Searcher is the retrieval capability bound into a review when a
// requirement document was indexed successfully.
type Searcher interface {
	Search(ctx context.Context, storeID, query string, numDocs int) ([]string, error)
}

// DirectReviewer queries a model with the assembled review context instead
// of spawning the external engine. The model response goes through the same
// recovery parser, so malformed output degrades to zero findings here too.
type DirectReviewer struct {
	model    Model
	prompts  *PromptManager
	provider ModelProvider
	searcher Searcher
	logger   *slog.Logger
}

func NewDirectReviewer(model Model, prompts *PromptManager, provider ModelProvider, searcher Searcher, logger *slog.Logger) *DirectReviewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectReviewer{
		model:    model,
		prompts:  prompts,
		provider: provider,
		searcher: searcher,
		logger:   logger,
	}
}

type findingPromptData struct {
	PRTitle             string
	PRDescription       string
	Diff                string
	RequirementPassages []string
}

// Review generates findings for the context. storeID may be empty, in which
// case the prompt carries no requirement passages.
func (r *DirectReviewer) Review(ctx context.Context, rc core.ReviewContext, storeID string) ([]core.Finding, error) {
	data := findingPromptData{
		PRTitle:       rc.PRTitle,
		PRDescription: rc.PRDescription,
		Diff:          rc.Diff,
	}

	if storeID != "" && r.searcher != nil {
		passages, err := r.searcher.Search(ctx, storeID, rc.PRTitle+"\n"+rc.PRDescription, retrievalDocs)
		if err != nil {
			r.logger.Warn("requirement retrieval failed, reviewing without augmentation", "error", err)
		} else {
			data.RequirementPassages = passages
		}
	}

	prompt, err := r.prompts.Render(FindingReviewPrompt, r.provider, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render review prompt: %w", err)
	}

	response, err := r.generateWithTimeout(ctx, prompt, generationTimeout)
	if err != nil {
		return nil, fmt.Errorf("model generation failed: %w", err)
	}

	findings := engine.ExtractFindings(response, r.logger)
	r.logger.Info("direct review complete", "findings", len(findings), "augmented", len(data.RequirementPassages) > 0)
	return findings, nil
}

// TalkScript asks the model for a spoken walkthrough of the findings.
func (r *DirectReviewer) TalkScript(ctx context.Context, prTitle string, findings []core.Finding) (string, error) {
	prompt, err := r.prompts.Render(TalkScriptPrompt, r.provider, map[string]any{
		"PRTitle":  prTitle,
		"Findings": findings,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render talk script prompt: %w", err)
	}
	return r.generateWithTimeout(ctx, prompt, generationTimeout)
}

// generateWithTimeout wraps model generation with a hard timeout.
func (r *DirectReviewer) generateWithTimeout(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		resp string
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		resp, err := r.model.Generate(ctx, prompt)
		select {
		case resultCh <- result{resp, err}:
		case <-ctx.Done():
		}
	}()

	select {
	case res := <-resultCh:
		return res.resp, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
