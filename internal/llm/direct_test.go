package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

type fakeModel struct {
	response string
	err      error
	prompt   string
}

func (m *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompt = prompt
	return m.response, m.err
}

type fakeSearcher struct {
	passages []string
	err      error
}

func (s *fakeSearcher) Search(_ context.Context, _, _ string, _ int) ([]string, error) {
	return s.passages, s.err
}

func testContext() core.ReviewContext {
	return core.ReviewContext{
		PRTitle:       "Add retry",
		PRDescription: "Adds bounded retry.",
		Diff:          "diff --git a/x b/x\n+retry\n",
	}
}

func TestDirectReviewerParsesModelResponse(t *testing.T) {
	model := &fakeModel{response: `[{"id":"F1","status":"FAIL","summary":"no backoff","confidence":0.7}]`}
	prompts, err := NewPromptManager()
	require.NoError(t, err)
	reviewer := NewDirectReviewer(model, prompts, DefaultProvider, nil, nil)

	findings, err := reviewer.Review(context.Background(), testContext(), "")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "F1", findings[0].ID)

	assert.Contains(t, model.prompt, "Add retry")
	assert.Contains(t, model.prompt, "diff --git a/x b/x")
	assert.NotContains(t, model.prompt, "Relevant requirement passages")
}

func TestDirectReviewerAugmentsPrompt(t *testing.T) {
	model := &fakeModel{response: `[]`}
	prompts, err := NewPromptManager()
	require.NoError(t, err)
	searcher := &fakeSearcher{passages: []string{"retries must back off exponentially"}}
	reviewer := NewDirectReviewer(model, prompts, DefaultProvider, searcher, nil)

	_, err = reviewer.Review(context.Background(), testContext(), "store-1")
	require.NoError(t, err)
	assert.Contains(t, model.prompt, "retries must back off exponentially")
}

func TestDirectReviewerSearchFailureDegrades(t *testing.T) {
	model := &fakeModel{response: `[]`}
	prompts, err := NewPromptManager()
	require.NoError(t, err)
	searcher := &fakeSearcher{err: errors.New("store gone")}
	reviewer := NewDirectReviewer(model, prompts, DefaultProvider, searcher, nil)

	findings, err := reviewer.Review(context.Background(), testContext(), "store-1")
	require.NoError(t, err, "retrieval failure is recoverable")
	assert.Empty(t, findings)
	assert.NotContains(t, model.prompt, "Relevant requirement passages")
}

func TestDirectReviewerMalformedResponseYieldsEmpty(t *testing.T) {
	model := &fakeModel{response: "I could not review this change."}
	prompts, err := NewPromptManager()
	require.NoError(t, err)
	reviewer := NewDirectReviewer(model, prompts, DefaultProvider, nil, nil)

	findings, err := reviewer.Review(context.Background(), testContext(), "")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestDirectReviewerModelErrorSurfaces(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	prompts, err := NewPromptManager()
	require.NoError(t, err)
	reviewer := NewDirectReviewer(model, prompts, DefaultProvider, nil, nil)

	_, err = reviewer.Review(context.Background(), testContext(), "")
	require.Error(t, err)
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `[{"id":"x"}]`, stripFence("```json\n[{\"id\":\"x\"}]\n```"))
	assert.Equal(t, `[{"id":"x"}]`, stripFence(`[{"id":"x"}]`))
}

func TestPromptManagerFallbackToDefault(t *testing.T) {
	prompts, err := NewPromptManager()
	require.NoError(t, err)

	out, err := prompts.Render(FindingReviewPrompt, ModelProvider("anthropic"), findingPromptData{PRTitle: "t", Diff: "d"})
	require.NoError(t, err)
	assert.Contains(t, out, "t")

	_, err = prompts.Render(PromptKey("missing"), DefaultProvider, nil)
	assert.Error(t, err)
}
