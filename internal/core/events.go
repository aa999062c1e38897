package core

import (
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
)

// EventFromIssueComment transforms a raw GitHub IssueCommentEvent into the
// application's internal ReviewEvent. It acts as an anti-corruption layer:
// the payload is validated here so downstream jobs can trust the event. Only
// "/review" commands on pull requests pass.
func EventFromIssueComment(event *github.IssueCommentEvent) (*ReviewEvent, error) {
	if !event.GetIssue().IsPullRequest() {
		return nil, fmt.Errorf("comment is not on a pull request")
	}

	if !strings.EqualFold(strings.TrimSpace(event.GetComment().GetBody()), "/review") {
		return nil, fmt.Errorf("comment is not a review command")
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	prNumber := event.GetIssue().GetNumber()
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	if event.GetComment().GetUser() == nil || event.GetComment().GetUser().GetLogin() == "" {
		return nil, fmt.Errorf("commenter information is missing from the event")
	}

	if event.GetInstallation() == nil || event.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing from the event")
	}

	return &ReviewEvent{
		Ref: PRReference{
			Owner:      repo.GetOwner().GetLogin(),
			Repo:       repo.GetName(),
			PullNumber: prNumber,
			CloneURL:   repo.GetCloneURL(),
		},
		PRTitle:        event.GetIssue().GetTitle(),
		PRBody:         event.GetIssue().GetBody(),
		Commenter:      event.GetComment().GetUser().GetLogin(),
		InstallationID: event.GetInstallation().GetID(),
	}, nil
}
