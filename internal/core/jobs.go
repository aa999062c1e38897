package core

import (
	"context"
)

// ReviewEvent is the internal representation of a review request, whether it
// arrived through the GitHub webhook or the CLI.
type ReviewEvent struct {
	Ref            PRReference
	PRTitle        string
	PRBody         string
	HeadSHA        string
	Commenter      string
	InstallationID int64

	// RequirementDocPath optionally points at a local requirement document
	// the pull request is reviewed against.
	RequirementDocPath string
}

// JobDispatcher defines the contract for a system that can accept and queue
// background jobs for asynchronous processing. This interface decouples the
// event source (e.g., a webhook handler) from the job execution mechanism.
type JobDispatcher interface {
	// Dispatch accepts a ReviewEvent and queues it for processing.
	// It returns an error if the job cannot be queued, for example, if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, event *ReviewEvent) error

	// Stop shuts the dispatcher down, waiting for in-flight jobs to finish.
	Stop()
}

// Job represents a single, executable unit of work processed by the
// application's job dispatcher.
type Job interface {
	Run(ctx context.Context, event *ReviewEvent) error
}
