package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// ErrIndexingTimeout marks a store that was not ready within the poll bound.
// It is recoverable: the review proceeds without retrieval augmentation.
var ErrIndexingTimeout = errors.New("document indexing did not complete in time")

// Policy bounds the indexing poll loop.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPolicy polls every 2 seconds up to 30 attempts, a ceiling of
// roughly one minute.
func DefaultPolicy() Policy {
	return Policy{Interval: 2 * time.Second, MaxAttempts: 30}
}

// Indexer uploads a requirement document to a named store and waits for the
// indexing operation to finish.
type Indexer struct {
	stores StoreService
	policy Policy
	logger *slog.Logger
}

func NewIndexer(stores StoreService, policy Policy, logger *slog.Logger) *Indexer {
	if policy.Interval <= 0 {
		policy.Interval = DefaultPolicy().Interval
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{stores: stores, policy: policy, logger: logger}
}

// Index creates the named store, uploads the document content, and polls the
// upload operation until it is READY, FAILED, cancelled, or the attempt bound
// is reached. The temporary upload artifact is removed on every path. On
// success the store identifier is returned for use as a search capability.
func (i *Indexer) Index(ctx context.Context, name string, content []byte) (string, error) {
	storeID, err := i.stores.CreateStore(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to create index store %s: %w", name, err)
	}

	artifact, err := os.CreateTemp("", "pr-warden-doc-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create upload artifact: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(artifact.Name()); removeErr != nil {
			i.logger.Warn("failed to remove upload artifact", "path", artifact.Name(), "error", removeErr)
		}
	}()

	if _, err := artifact.Write(content); err != nil {
		artifact.Close()
		return "", fmt.Errorf("failed to write upload artifact: %w", err)
	}
	if err := artifact.Close(); err != nil {
		return "", fmt.Errorf("failed to close upload artifact: %w", err)
	}

	opID, err := i.stores.UploadDocument(ctx, storeID, artifact.Name())
	if err != nil {
		return "", fmt.Errorf("failed to upload document to store %s: %w", storeID, err)
	}

	if err := i.awaitOperation(ctx, opID); err != nil {
		return "", err
	}

	i.logger.Info("requirement document indexed", "store", storeID)
	return storeID, nil
}

// awaitOperation polls the operation on the policy interval until it reaches
// a terminal state or the bound is exhausted.
func (i *Indexer) awaitOperation(ctx context.Context, opID string) error {
	ticker := time.NewTicker(i.policy.Interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= i.policy.MaxAttempts; attempt++ {
		op, err := i.stores.GetOperation(ctx, opID)
		if err != nil {
			return fmt.Errorf("failed to poll indexing operation %s: %w", opID, err)
		}

		switch op.State {
		case StateReady:
			return nil
		case StateFailed:
			return fmt.Errorf("indexing operation %s failed: %s", opID, op.Err)
		}

		i.logger.Debug("indexing in progress", "operation", opID, "state", op.State, "attempt", attempt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return fmt.Errorf("%w: operation %s after %d attempts", ErrIndexingTimeout, opID, i.policy.MaxAttempts)
}
