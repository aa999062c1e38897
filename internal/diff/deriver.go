// Package diff derives the bounded unified diff a review is based on.
package diff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// ErrExhausted is returned when every diff base attempt fails, e.g. a
// repository with no usable history at all.
var ErrExhausted = errors.New("all diff bases exhausted")

// TruncationMarker is appended to a diff that exceeded the size cap.
const TruncationMarker = "\n... [diff truncated]"

// defaultBases are tried in order against the checked-out head: the primary
// remote default branch, a secondary common default, and the immediately
// preceding commit as a last resort.
var defaultBases = []string{"origin/main", "origin/master", "HEAD~1"}

// Runner produces a unified diff of HEAD against a base revision.
type Runner interface {
	Diff(ctx context.Context, dir, base string) (string, error)
}

// Deriver walks an ordered list of diff bases and returns the first diff
// that can be produced, capped at a fixed character threshold.
type Deriver struct {
	git      Runner
	maxChars int
	logger   *slog.Logger
}

// NewDeriver creates a Deriver with the given size cap.
func NewDeriver(git Runner, maxChars int, logger *slog.Logger) *Deriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deriver{git: git, maxChars: maxChars, logger: logger}
}

// Derive attempts each base in order and returns the first diff that
// succeeds; later bases are not attempted once one succeeds. preferredBase,
// when non-empty, is tried before the defaults. Only if every base errors
// does Derive fail with ErrExhausted.
func (d *Deriver) Derive(ctx context.Context, dir, preferredBase string) (*core.DiffDocument, error) {
	bases := defaultBases
	if preferredBase != "" {
		bases = append([]string{preferredBase}, defaultBases...)
	}

	var lastErr error
	for _, base := range bases {
		text, err := d.git.Diff(ctx, dir, base)
		if err != nil {
			d.logger.Debug("diff base unavailable", "base", base, "error", err)
			lastErr = err
			continue
		}
		d.logger.Info("diff derived", "base", base, "chars", len(text))
		return d.cap(text), nil
	}

	return nil, fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}

// cap enforces the size threshold, appending an explicit truncation marker
// when the raw diff exceeds it. The result never exceeds the threshold plus
// the marker length.
func (d *Deriver) cap(text string) *core.DiffDocument {
	doc := &core.DiffDocument{Text: text, OriginalLength: len(text)}
	if len(text) > d.maxChars {
		doc.Text = text[:d.maxChars] + TruncationMarker
		doc.Truncated = true
	}
	return doc
}

// FilterPaths removes file sections from a unified diff whose paths start
// with one of the given prefixes. Used to honor a repository's
// exclude_paths review settings.
func FilterPaths(text string, prefixes []string) string {
	if len(prefixes) == 0 || text == "" {
		return text
	}

	var sb strings.Builder
	excluded := false
	for _, line := range strings.SplitAfter(text, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			excluded = headerExcluded(line, prefixes)
		}
		if !excluded {
			sb.WriteString(line)
		}
	}
	return sb.String()
}

func headerExcluded(header string, prefixes []string) bool {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(header), "diff --git "))
	for _, f := range fields {
		p := strings.TrimPrefix(strings.TrimPrefix(f, "a/"), "b/")
		for _, prefix := range prefixes {
			if strings.HasPrefix(p, prefix) {
				return true
			}
		}
	}
	return false
}
