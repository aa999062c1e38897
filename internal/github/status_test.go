package github

import (
	"context"
	"errors"
	"testing"

	gh "github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

type fakeClient struct {
	comments   []string
	createOpts *gh.CreateCheckRunOptions
	updateOpts *gh.UpdateCheckRunOptions
	updateID   int64
	createErr  error
}

func (f *fakeClient) FetchPRInfo(_ context.Context, _ core.PRReference) (*core.PRMetadata, error) {
	return &core.PRMetadata{}, nil
}

func (f *fakeClient) CreateComment(_ context.Context, _, _ string, _ int, body string) error {
	f.comments = append(f.comments, body)
	return nil
}

func (f *fakeClient) CreateCheckRun(_ context.Context, _, _ string, opts gh.CreateCheckRunOptions) (*gh.CheckRun, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createOpts = &opts
	return &gh.CheckRun{ID: gh.Ptr(int64(77))}, nil
}

func (f *fakeClient) UpdateCheckRun(_ context.Context, _, _ string, checkRunID int64, opts gh.UpdateCheckRunOptions) (*gh.CheckRun, error) {
	f.updateID = checkRunID
	f.updateOpts = &opts
	return &gh.CheckRun{}, nil
}

func statusEvent() *core.ReviewEvent {
	return &core.ReviewEvent{
		Ref:     core.PRReference{Owner: "acme", Repo: "widgets", PullNumber: 42},
		HeadSHA: "abc123",
	}
}

func TestInProgressCreatesCheckRun(t *testing.T) {
	client := &fakeClient{}
	updater := NewStatusUpdater(client)

	id, err := updater.InProgress(context.Background(), statusEvent(), "Reviewing", "Review in progress")
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)

	require.NotNil(t, client.createOpts)
	assert.Equal(t, checkRunName, client.createOpts.Name)
	assert.Equal(t, "abc123", client.createOpts.HeadSHA)
	assert.Equal(t, "in_progress", client.createOpts.GetStatus())
}

func TestInProgressPropagatesError(t *testing.T) {
	client := &fakeClient{createErr: errors.New("boom")}
	updater := NewStatusUpdater(client)

	_, err := updater.InProgress(context.Background(), statusEvent(), "t", "s")
	require.Error(t, err)
}

func TestCompletedUpdatesCheckRun(t *testing.T) {
	client := &fakeClient{}
	updater := NewStatusUpdater(client)

	err := updater.Completed(context.Background(), statusEvent(), 77, "success", "Done", "All good")
	require.NoError(t, err)

	assert.Equal(t, int64(77), client.updateID)
	require.NotNil(t, client.updateOpts)
	assert.Equal(t, "completed", client.updateOpts.GetStatus())
	assert.Equal(t, "success", client.updateOpts.GetConclusion())
	assert.NotNil(t, client.updateOpts.CompletedAt)
}

func TestPostSimpleComment(t *testing.T) {
	client := &fakeClient{}
	updater := NewStatusUpdater(client)

	err := updater.PostSimpleComment(context.Background(), statusEvent(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, client.comments)
}
