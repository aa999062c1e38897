package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/pr-warden/internal/core"
)

func TestAggregateCommentEmpty(t *testing.T) {
	assert.Equal(t, NoIssuesComment, AggregateComment(nil))
	assert.Equal(t, NoIssuesComment, AggregateComment([]core.Finding{}))
}

func TestAggregateCommentAllDismissed(t *testing.T) {
	findings := []core.Finding{
		{ID: "F1", Status: core.StatusFail, Summary: "x", UserDecision: core.DecisionDismissed},
		{ID: "F2", Status: core.StatusClarify, Summary: "y", UserDecision: core.DecisionDismissed},
	}
	assert.Equal(t, NoIssuesComment, AggregateComment(findings))
}

func TestAggregateCommentDecisionFiltering(t *testing.T) {
	findings := []core.Finding{
		{ID: "F1", Status: core.StatusFail, Summary: "approved issue", UserDecision: core.DecisionApproved},
		{ID: "F2", Status: core.StatusFail, Summary: "dismissed issue", UserDecision: core.DecisionDismissed},
		{ID: "F3", Status: core.StatusClarify, Summary: "undecided issue"},
		{ID: "F4", Status: core.StatusPass, Summary: "edited issue", UserDecision: core.DecisionEdited},
	}

	out := AggregateComment(findings)
	assert.Contains(t, out, "approved issue")
	assert.Contains(t, out, "undecided issue")
	assert.Contains(t, out, "edited issue")
	assert.NotContains(t, out, "dismissed issue")
}

func TestAggregateCommentRenderOrder(t *testing.T) {
	findings := []core.Finding{{
		ID:         "F1",
		Status:     core.StatusFail,
		Summary:    "missing backoff",
		Reason:     "requirement mandates exponential backoff",
		Suggestion: "multiply the delay each attempt",
		Evidence: []core.Evidence{
			{FilePath: "internal/client/retry.go", StartLine: 40, EndLine: 55},
			{FilePath: "internal/client/retry_test.go"},
		},
	}}

	out := AggregateComment(findings)
	assert.Contains(t, out, "❌ missing backoff")
	assert.Contains(t, out, "`internal/client/retry.go` (lines 40-55)")
	assert.NotContains(t, out, "retry_test.go", "only the first evidence entry is rendered")

	// Fixed section order: evidence, then reason, then suggestion.
	iEvidence := strings.Index(out, "**Evidence:**")
	iReason := strings.Index(out, "**Reason:**")
	iSuggestion := strings.Index(out, "**Suggestion:**")
	assert.True(t, iEvidence < iReason && iReason < iSuggestion, "got order %d %d %d", iEvidence, iReason, iSuggestion)
}

func TestAggregateCommentIdempotent(t *testing.T) {
	findings := []core.Finding{
		{ID: "F1", Status: core.StatusPass, Summary: "met", Confidence: 0.9},
		{ID: "F2", Status: core.StatusFail, Summary: "unmet", UserDecision: core.DecisionApproved},
	}
	assert.Equal(t, AggregateComment(findings), AggregateComment(findings))
}

func TestAggregateCommentStatusIcons(t *testing.T) {
	out := AggregateComment([]core.Finding{
		{ID: "a", Status: core.StatusPass, Summary: "p"},
		{ID: "b", Status: core.StatusFail, Summary: "f"},
		{ID: "c", Status: core.StatusClarify, Summary: "c"},
	})
	assert.Contains(t, out, "✅ p")
	assert.Contains(t, out, "❌ f")
	assert.Contains(t, out, "❓ c")
}

func TestFormatEvidenceSingleLine(t *testing.T) {
	assert.Equal(t, "`a/b.go` (line 7)", formatEvidence(core.Evidence{FilePath: "a/b.go", StartLine: 7, EndLine: 7}))
	assert.Equal(t, "`a/b.go`", formatEvidence(core.Evidence{FilePath: "a/b.go"}))
}

func TestBuildTalkScript(t *testing.T) {
	findings := []core.Finding{
		{ID: "F1", Status: core.StatusFail, Summary: "unmet", Evidence: []core.Evidence{{FilePath: "x.go", StartLine: 3}}},
		{ID: "F2", Status: core.StatusPass, Summary: "skip me", UserDecision: core.DecisionDismissed},
	}

	script := BuildTalkScript(findings)
	assert.Equal(t, "Fail: unmet (see `x.go` (line 3))", script)

	assert.Equal(t, "All requirements look satisfied, nothing to walk through.", BuildTalkScript(nil))
}
