package review

import (
	"fmt"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// NoIssuesComment is returned when no finding survives decision filtering.
const NoIssuesComment = "✅ No issues found."

// AggregateComment derives a single Markdown comment from the finding
// sequence. Findings whose decision is DISMISSED are excluded; APPROVED,
// EDITED, and undecided findings are included. The function is pure and
// deterministic: identical inputs always yield an identical string.
func AggregateComment(findings []core.Finding) string {
	included := make([]core.Finding, 0, len(findings))
	for _, f := range findings {
		if f.UserDecision == core.DecisionDismissed {
			continue
		}
		included = append(included, f)
	}

	if len(included) == 0 {
		return NoIssuesComment
	}

	var sb strings.Builder
	sb.WriteString("### 📝 Requirement Review\n\n")

	for i, f := range included {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		sb.WriteString(fmt.Sprintf("#### %s %s\n\n", statusIcon(f.Status), f.Summary))

		if len(f.Evidence) > 0 {
			sb.WriteString(fmt.Sprintf("**Evidence:** %s\n\n", formatEvidence(f.Evidence[0])))
		}
		if f.Reason != "" {
			sb.WriteString(fmt.Sprintf("**Reason:** %s\n\n", f.Reason))
		}
		if f.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("**Suggestion:** %s\n\n", f.Suggestion))
		}
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// BuildTalkScript derives a short spoken-style walkthrough of the included
// findings, one line per finding. Like AggregateComment it is pure and
// skips DISMISSED findings.
func BuildTalkScript(findings []core.Finding) string {
	var lines []string
	for _, f := range findings {
		if f.UserDecision == core.DecisionDismissed {
			continue
		}
		line := fmt.Sprintf("%s: %s", verdictWord(f.Status), f.Summary)
		if len(f.Evidence) > 0 {
			line += fmt.Sprintf(" (see %s)", formatEvidence(f.Evidence[0]))
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "All requirements look satisfied, nothing to walk through."
	}
	return strings.Join(lines, "\n")
}

func statusIcon(s core.FindingStatus) string {
	switch s {
	case core.StatusPass:
		return "✅"
	case core.StatusFail:
		return "❌"
	case core.StatusClarify:
		return "❓"
	default:
		return "📝"
	}
}

func verdictWord(s core.FindingStatus) string {
	switch s {
	case core.StatusPass:
		return "Pass"
	case core.StatusFail:
		return "Fail"
	case core.StatusClarify:
		return "Needs clarification"
	default:
		return "Note"
	}
}

func formatEvidence(ev core.Evidence) string {
	switch {
	case ev.StartLine > 0 && ev.EndLine > 0 && ev.EndLine != ev.StartLine:
		return fmt.Sprintf("`%s` (lines %d-%d)", ev.FilePath, ev.StartLine, ev.EndLine)
	case ev.StartLine > 0:
		return fmt.Sprintf("`%s` (line %d)", ev.FilePath, ev.StartLine)
	default:
		return fmt.Sprintf("`%s`", ev.FilePath)
	}
}
