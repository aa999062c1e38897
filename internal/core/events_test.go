package core

import (
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewCommentEvent() *github.IssueCommentEvent {
	return &github.IssueCommentEvent{
		Issue: &github.Issue{
			Number:           github.Ptr(42),
			Title:            github.Ptr("Add retry"),
			Body:             github.Ptr("Adds bounded retry."),
			PullRequestLinks: &github.PullRequestLinks{URL: github.Ptr("https://api.github.com/repos/acme/widgets/pulls/42")},
		},
		Comment: &github.IssueComment{
			Body: github.Ptr("/review"),
			User: &github.User{Login: github.Ptr("reviewer")},
		},
		Repo: &github.Repository{
			Name:     github.Ptr("widgets"),
			FullName: github.Ptr("acme/widgets"),
			CloneURL: github.Ptr("https://github.com/acme/widgets.git"),
			Owner:    &github.User{Login: github.Ptr("acme")},
		},
		Installation: &github.Installation{ID: github.Ptr(int64(7))},
	}
}

func TestEventFromIssueComment(t *testing.T) {
	event, err := EventFromIssueComment(reviewCommentEvent())
	require.NoError(t, err)

	assert.Equal(t, "acme", event.Ref.Owner)
	assert.Equal(t, "widgets", event.Ref.Repo)
	assert.Equal(t, 42, event.Ref.PullNumber)
	assert.Equal(t, "https://github.com/acme/widgets.git", event.Ref.CloneURL)
	assert.Equal(t, "Add retry", event.PRTitle)
	assert.Equal(t, "reviewer", event.Commenter)
	assert.Equal(t, int64(7), event.InstallationID)
}

func TestEventFromIssueCommentCaseInsensitiveCommand(t *testing.T) {
	raw := reviewCommentEvent()
	raw.Comment.Body = github.Ptr("  /REVIEW ")

	_, err := EventFromIssueComment(raw)
	assert.NoError(t, err)
}

func TestEventFromIssueCommentRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*github.IssueCommentEvent)
	}{
		{name: "not a pull request", mutate: func(e *github.IssueCommentEvent) { e.Issue.PullRequestLinks = nil }},
		{name: "not a review command", mutate: func(e *github.IssueCommentEvent) { e.Comment.Body = github.Ptr("nice work!") }},
		{name: "missing owner", mutate: func(e *github.IssueCommentEvent) { e.Repo.Owner = nil }},
		{name: "missing commenter", mutate: func(e *github.IssueCommentEvent) { e.Comment.User = nil }},
		{name: "missing installation", mutate: func(e *github.IssueCommentEvent) { e.Installation = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := reviewCommentEvent()
			tt.mutate(raw)
			_, err := EventFromIssueComment(raw)
			assert.Error(t, err)
		})
	}
}
