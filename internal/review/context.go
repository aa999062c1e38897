// Package review assembles the review context, orchestrates the pipeline
// stages, and derives the human-facing comment from findings.
package review

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// ContextFileName is the artifact the review engine reads from the
// workspace root.
const ContextFileName = "REVIEW_CONTEXT.md"

// BuildContext constructs the review context from PR metadata, the derived
// diff, and an optional requirement file name. It is pure: identical inputs
// yield an identical context.
func BuildContext(meta *core.PRMetadata, diff core.DiffDocument, requirementFileName string) core.ReviewContext {
	return core.ReviewContext{
		PRTitle:             meta.Title,
		PRDescription:       meta.Description,
		Diff:                diff.Text,
		RequirementFileName: requirementFileName,
	}
}

// RenderContext serializes a review context into the Markdown document the
// engine consumes. The layout is fixed so identical contexts render to
// byte-identical documents.
func RenderContext(rc core.ReviewContext) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Pull Request: %s\n\n", rc.PRTitle))

	sb.WriteString("## Description\n\n")
	if rc.PRDescription != "" {
		sb.WriteString(rc.PRDescription)
	} else {
		sb.WriteString("_No description provided._")
	}
	sb.WriteString("\n\n")

	if rc.RequirementFileName != "" {
		sb.WriteString("## Requirements\n\n")
		sb.WriteString(fmt.Sprintf("The requirement document is available at `%s` in this directory. Verify the changes below against it.\n\n", rc.RequirementFileName))
	}

	sb.WriteString("## Diff\n\n")
	sb.WriteString("```diff\n")
	sb.WriteString(rc.Diff)
	if !strings.HasSuffix(rc.Diff, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")

	return sb.String()
}

// WriteContextFile renders the context and places it at the workspace root
// where the engine expects it.
func WriteContextFile(workspacePath string, rc core.ReviewContext) error {
	target := filepath.Join(workspacePath, ContextFileName)
	if err := os.WriteFile(target, []byte(RenderContext(rc)), 0600); err != nil {
		return fmt.Errorf("failed to write review context: %w", err)
	}
	return nil
}

// StageRequirementDoc copies a local requirement document into the workspace
// and returns the file name the context should reference. An empty source
// path is a no-op.
func StageRequirementDoc(workspacePath, docPath string) (string, error) {
	if docPath == "" {
		return "", nil
	}
	data, err := os.ReadFile(docPath)
	if err != nil {
		return "", fmt.Errorf("failed to read requirement document %s: %w", docPath, err)
	}
	name := filepath.Base(docPath)
	if err := os.WriteFile(filepath.Join(workspacePath, name), data, 0600); err != nil {
		return "", fmt.Errorf("failed to stage requirement document: %w", err)
	}
	return name, nil
}
