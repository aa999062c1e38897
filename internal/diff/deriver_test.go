package diff

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner maps bases to canned diffs or errors and records the
// attempt order.
type scriptedRunner struct {
	diffs    map[string]string
	errs     map[string]error
	attempts []string
}

func (s *scriptedRunner) Diff(_ context.Context, _ string, base string) (string, error) {
	s.attempts = append(s.attempts, base)
	if err, ok := s.errs[base]; ok {
		return "", err
	}
	if text, ok := s.diffs[base]; ok {
		return text, nil
	}
	return "", errors.New("unknown revision " + base)
}

func TestDerivePrimaryBase(t *testing.T) {
	runner := &scriptedRunner{diffs: map[string]string{"origin/main": "diff-main"}}
	d := NewDeriver(runner, 30000, nil)

	doc, err := d.Derive(context.Background(), "/ws", "")
	require.NoError(t, err)
	assert.Equal(t, "diff-main", doc.Text)
	assert.False(t, doc.Truncated)
	// Later bases are never attempted once one succeeds.
	assert.Equal(t, []string{"origin/main"}, runner.attempts)
}

func TestDeriveFallsBackToSecondary(t *testing.T) {
	runner := &scriptedRunner{
		errs:  map[string]error{"origin/main": errors.New("unknown revision")},
		diffs: map[string]string{"origin/master": "diff-master"},
	}
	d := NewDeriver(runner, 30000, nil)

	doc, err := d.Derive(context.Background(), "/ws", "")
	require.NoError(t, err)
	assert.Equal(t, "diff-master", doc.Text)
	assert.Equal(t, []string{"origin/main", "origin/master"}, runner.attempts)
}

func TestDeriveParentCommitLastResort(t *testing.T) {
	runner := &scriptedRunner{diffs: map[string]string{"HEAD~1": "diff-parent"}}
	d := NewDeriver(runner, 30000, nil)

	doc, err := d.Derive(context.Background(), "/ws", "")
	require.NoError(t, err)
	assert.Equal(t, "diff-parent", doc.Text)
}

func TestDerivePreferredBaseFirst(t *testing.T) {
	runner := &scriptedRunner{diffs: map[string]string{"origin/develop": "diff-develop", "origin/main": "diff-main"}}
	d := NewDeriver(runner, 30000, nil)

	doc, err := d.Derive(context.Background(), "/ws", "origin/develop")
	require.NoError(t, err)
	assert.Equal(t, "diff-develop", doc.Text)
	assert.Equal(t, []string{"origin/develop"}, runner.attempts)
}

func TestDeriveExhausted(t *testing.T) {
	runner := &scriptedRunner{}
	d := NewDeriver(runner, 30000, nil)

	_, err := d.Derive(context.Background(), "/ws", "")
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, []string{"origin/main", "origin/master", "HEAD~1"}, runner.attempts)
}

func TestDeriveTruncation(t *testing.T) {
	big := strings.Repeat("x", 35000)
	runner := &scriptedRunner{diffs: map[string]string{"origin/main": big}}
	d := NewDeriver(runner, 30000, nil)

	doc, err := d.Derive(context.Background(), "/ws", "")
	require.NoError(t, err)
	assert.True(t, doc.Truncated)
	assert.Equal(t, 35000, doc.OriginalLength)
	assert.True(t, strings.HasSuffix(doc.Text, TruncationMarker))
	assert.LessOrEqual(t, len(doc.Text), 30000+len(TruncationMarker))
}

func TestDeriveExactCapNotTruncated(t *testing.T) {
	exact := strings.Repeat("y", 30000)
	runner := &scriptedRunner{diffs: map[string]string{"origin/main": exact}}
	d := NewDeriver(runner, 30000, nil)

	doc, err := d.Derive(context.Background(), "/ws", "")
	require.NoError(t, err)
	assert.False(t, doc.Truncated)
	assert.Equal(t, exact, doc.Text)
}

const sampleDiff = `diff --git a/internal/api/server.go b/internal/api/server.go
index 1111111..2222222 100644
--- a/internal/api/server.go
+++ b/internal/api/server.go
@@ -1,3 +1,4 @@
+// comment
diff --git a/vendor/dep/dep.go b/vendor/dep/dep.go
index 3333333..4444444 100644
--- a/vendor/dep/dep.go
+++ b/vendor/dep/dep.go
@@ -5,0 +6,1 @@
+var x = 1
diff --git a/docs/readme.md b/docs/readme.md
index 5555555..6666666 100644
--- a/docs/readme.md
+++ b/docs/readme.md
@@ -1,1 +1,2 @@
+notes
`

func TestFilterPaths(t *testing.T) {
	filtered := FilterPaths(sampleDiff, []string{"vendor/", "docs/"})

	assert.Contains(t, filtered, "internal/api/server.go")
	assert.NotContains(t, filtered, "vendor/dep/dep.go")
	assert.NotContains(t, filtered, "docs/readme.md")
	assert.NotContains(t, filtered, "var x = 1")
}

func TestFilterPathsNoPrefixesIsIdentity(t *testing.T) {
	assert.Equal(t, sampleDiff, FilterPaths(sampleDiff, nil))
}
