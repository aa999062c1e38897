// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the review pipeline.
package core

import (
	"fmt"
	"path"
	"strings"
)

// PRReference identifies a pull request on a hosted repository.
// It is immutable once parsed from a locator.
type PRReference struct {
	Owner      string
	Repo       string
	PullNumber int
	CloneURL   string
}

// Key returns the deterministic workspace key for this reference.
func (r PRReference) Key() string {
	return fmt.Sprintf("%s-%s-%d", r.Owner, r.Repo, r.PullNumber)
}

// FullName returns the "owner/repo" form of the reference.
func (r PRReference) FullName() string {
	return r.Owner + "/" + r.Repo
}

// URL reconstructs the canonical pull request URL.
func (r PRReference) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s/pull/%d", r.Owner, r.Repo, r.PullNumber)
}

// Workspace is an isolated working directory exclusively owned by one
// in-flight review. It must not outlive the review it was created for.
type Workspace struct {
	Path string
	Ref  PRReference
}

// DiffDocument is the bounded unified diff derived from a workspace.
type DiffDocument struct {
	Text           string
	Truncated      bool
	OriginalLength int
}

// PRMetadata is the typed result of the "fetch PR info" capability.
type PRMetadata struct {
	Title        string
	Description  string
	Additions    int
	Deletions    int
	ChangedFiles int
	HeadSHA      string
	CloneURL     string
}

// ReviewContext is the deterministic payload handed to the review engine.
// Identical inputs must produce a byte-identical context.
type ReviewContext struct {
	PRTitle             string
	PRDescription       string
	Diff                string
	RequirementFileName string
}

// ToolInvocationResult captures the structured outcome of one subprocess run
// of the external review engine.
type ToolInvocationResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// FindingStatus is the verdict a single finding carries.
type FindingStatus string

const (
	StatusPass    FindingStatus = "PASS"
	StatusFail    FindingStatus = "FAIL"
	StatusClarify FindingStatus = "CLARIFY"
)

// UserDecision records how the reviewer handled a proposed finding.
type UserDecision string

const (
	DecisionApproved  UserDecision = "APPROVED"
	DecisionDismissed UserDecision = "DISMISSED"
	DecisionEdited    UserDecision = "EDITED"
)

// Evidence is a file path and optional line range supporting a finding.
// The path is relative to the reviewed repository.
type Evidence struct {
	FilePath  string `json:"filePath"`
	StartLine int    `json:"startLine,omitempty"`
	EndLine   int    `json:"endLine,omitempty"`
}

// Finding is one structured review observation recovered from engine output.
type Finding struct {
	ID              string        `json:"id"`
	Status          FindingStatus `json:"status"`
	Summary         string        `json:"summary"`
	Reason          string        `json:"reason,omitempty"`
	Suggestion      string        `json:"suggestion,omitempty"`
	Evidence        []Evidence    `json:"evidence,omitempty"`
	Confidence      float64       `json:"confidence"`
	ProposedComment string        `json:"proposedComment,omitempty"`
	UserDecision    UserDecision  `json:"userDecision,omitempty"`
}

// Validate reports whether the finding satisfies the schema: a non-empty id
// and summary, a known status, confidence inside the closed unit interval,
// and evidence paths that stay relative to the reviewed repository.
// Out-of-range confidence is a failure, never silently clamped.
func (f *Finding) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("finding is missing an id")
	}
	if strings.TrimSpace(f.Summary) == "" {
		return fmt.Errorf("finding %s is missing a summary", f.ID)
	}
	switch f.Status {
	case StatusPass, StatusFail, StatusClarify:
	default:
		return fmt.Errorf("finding %s has unknown status %q", f.ID, f.Status)
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return fmt.Errorf("finding %s confidence %v is outside [0,1]", f.ID, f.Confidence)
	}
	switch f.UserDecision {
	case "", DecisionApproved, DecisionDismissed, DecisionEdited:
	default:
		return fmt.Errorf("finding %s has unknown user decision %q", f.ID, f.UserDecision)
	}
	for _, ev := range f.Evidence {
		if err := validateEvidence(f.ID, ev); err != nil {
			return err
		}
	}
	return nil
}

func validateEvidence(findingID string, ev Evidence) error {
	p := strings.TrimSpace(ev.FilePath)
	if p == "" {
		return fmt.Errorf("finding %s has evidence with an empty path", findingID)
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, ":\\") {
		return fmt.Errorf("finding %s evidence path %q is not repository-relative", findingID, p)
	}
	if clean := path.Clean(strings.ReplaceAll(p, "\\", "/")); clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("finding %s evidence path %q escapes the repository", findingID, p)
	}
	if ev.StartLine < 0 || ev.EndLine < 0 {
		return fmt.Errorf("finding %s has negative evidence lines", findingID)
	}
	if ev.EndLine > 0 && ev.StartLine > ev.EndLine {
		return fmt.Errorf("finding %s has inverted evidence range %d-%d", findingID, ev.StartLine, ev.EndLine)
	}
	return nil
}

// ReviewResult is the terminal artifact of one review pipeline run.
type ReviewResult struct {
	PRURL        string
	Findings     []Finding
	TalkScript   string
	DraftComment string
}
