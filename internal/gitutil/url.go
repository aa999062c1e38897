package gitutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// ErrInvalidReference is returned when a locator does not match the expected
// pull request URL pattern.
var ErrInvalidReference = errors.New("invalid pull request reference")

var prURLRegex = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/pull/(\d+)$`)

// ParsePullRequestURL parses a GitHub Pull Request URL into a PRReference.
// Supported format: https://github.com/{owner}/{repo}/pull/{number}
func ParsePullRequestURL(locator string) (core.PRReference, error) {
	locator = strings.TrimSuffix(strings.TrimSpace(locator), "/")

	matches := prURLRegex.FindStringSubmatch(locator)
	if len(matches) != 4 {
		return core.PRReference{}, fmt.Errorf("%w: %q", ErrInvalidReference, locator)
	}

	number, err := strconv.Atoi(matches[3])
	if err != nil || number <= 0 {
		return core.PRReference{}, fmt.Errorf("%w: bad pull number %q", ErrInvalidReference, matches[3])
	}

	ref := core.PRReference{
		Owner:      matches[1],
		Repo:       matches[2],
		PullNumber: number,
	}
	ref.CloneURL = fmt.Sprintf("https://github.com/%s/%s.git", ref.Owner, ref.Repo)
	return ref, nil
}
