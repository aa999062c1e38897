package review

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

func TestBuildContextDeterministic(t *testing.T) {
	meta := &core.PRMetadata{Title: "Add retry", Description: "Adds bounded retry."}
	doc := core.DiffDocument{Text: "diff --git a/x b/x\n+retry\n"}

	first := BuildContext(meta, doc, "REQUIREMENTS.md")
	second := BuildContext(meta, doc, "REQUIREMENTS.md")

	assert.Equal(t, first, second)
	assert.Equal(t, RenderContext(first), RenderContext(second))
}

func TestRenderContextSections(t *testing.T) {
	rc := core.ReviewContext{
		PRTitle:             "Fix flaky timeout",
		PRDescription:       "Raises the poll ceiling.",
		Diff:                "diff --git a/poll.go b/poll.go",
		RequirementFileName: "spec-notes.md",
	}

	out := RenderContext(rc)
	assert.Contains(t, out, "# Pull Request: Fix flaky timeout")
	assert.Contains(t, out, "Raises the poll ceiling.")
	assert.Contains(t, out, "`spec-notes.md`")
	assert.Contains(t, out, "```diff\ndiff --git a/poll.go b/poll.go\n```")
}

func TestRenderContextEmptyDescription(t *testing.T) {
	out := RenderContext(core.ReviewContext{PRTitle: "t", Diff: "d"})
	assert.Contains(t, out, "_No description provided._")
	assert.NotContains(t, out, "## Requirements")
}

func TestWriteContextFile(t *testing.T) {
	dir := t.TempDir()
	rc := core.ReviewContext{PRTitle: "t", Diff: "d"}

	require.NoError(t, WriteContextFile(dir, rc))

	data, err := os.ReadFile(filepath.Join(dir, ContextFileName))
	require.NoError(t, err)
	assert.Equal(t, RenderContext(rc), string(data))
}

func TestStageRequirementDoc(t *testing.T) {
	src := filepath.Join(t.TempDir(), "acceptance.md")
	require.NoError(t, os.WriteFile(src, []byte("must retry"), 0600))
	dir := t.TempDir()

	name, err := StageRequirementDoc(dir, src)
	require.NoError(t, err)
	assert.Equal(t, "acceptance.md", name)

	data, err := os.ReadFile(filepath.Join(dir, "acceptance.md"))
	require.NoError(t, err)
	assert.Equal(t, "must retry", string(data))
}

func TestStageRequirementDocEmptyPath(t *testing.T) {
	name, err := StageRequirementDoc(t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestStageRequirementDocMissingSource(t *testing.T) {
	_, err := StageRequirementDoc(t.TempDir(), "/does/not/exist.md")
	assert.Error(t, err)
}
