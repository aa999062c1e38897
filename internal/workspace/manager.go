// Package workspace manages isolated, disposable working directories for
// in-flight pull request reviews.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/sevigo/pr-warden/internal/core"
)

// ErrAcquisition is returned when the workspace for a review cannot be
// materialized (clone, fetch or checkout failure). This is fatal for the
// review pipeline: no diff can be derived without a workspace.
var ErrAcquisition = errors.New("workspace acquisition failed")

// GitClient is the subset of git operations the manager needs.
type GitClient interface {
	CloneShallow(ctx context.Context, repoURL, path, token string, depth int) error
	FetchPullHead(ctx context.Context, path string, number int) error
	Checkout(ctx context.Context, path, ref string) error
}

// Manager acquires and releases per-review workspace directories under a
// configured root. Directories are keyed by owner-repo-number; a key-scoped
// mutex is held for the pipeline's duration so two concurrent reviews of the
// same pull request serialize instead of deleting each other's state.
type Manager struct {
	root       string
	cloneDepth int
	git        GitClient
	logger     *slog.Logger
	locks      sync.Map
}

// NewManager creates a Manager rooted at the given directory. The root is a
// configuration value injected once at process start; the manager never
// consults an ambient temp-dir global.
func NewManager(root string, cloneDepth int, git GitClient, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		root:       root,
		cloneDepth: cloneDepth,
		git:        git,
		logger:     logger,
	}
}

// Acquire materializes an isolated workspace for the given reference: it
// locks the reference key, removes any stale directory a crashed prior run
// left behind, clones with bounded depth, fetches the pull request head ref
// and checks it out. The key lock stays held until Release.
func (m *Manager) Acquire(ctx context.Context, ref core.PRReference, token string) (*core.Workspace, error) {
	mu := m.keyLock(ref.Key())
	mu.Lock()

	path := filepath.Join(m.root, ref.Key())

	if _, err := os.Stat(path); err == nil {
		m.logger.Warn("removing stale workspace from a prior run", "path", path)
		if err := os.RemoveAll(path); err != nil {
			mu.Unlock()
			return nil, fmt.Errorf("%w: cannot remove stale directory %s: %w", ErrAcquisition, path, err)
		}
	}

	if err := os.MkdirAll(m.root, 0750); err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("%w: cannot create workspace root: %w", ErrAcquisition, err)
	}

	if err := m.materialize(ctx, ref, path, token); err != nil {
		if rmErr := os.RemoveAll(path); rmErr != nil {
			m.logger.Warn("failed to clean up partial workspace", "path", path, "error", rmErr)
		}
		mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrAcquisition, err)
	}

	m.logger.Info("workspace acquired", "key", ref.Key(), "path", path)
	return &core.Workspace{Path: path, Ref: ref}, nil
}

func (m *Manager) materialize(ctx context.Context, ref core.PRReference, path, token string) error {
	if err := m.git.CloneShallow(ctx, ref.CloneURL, path, token, m.cloneDepth); err != nil {
		return err
	}
	if err := m.git.FetchPullHead(ctx, path, ref.PullNumber); err != nil {
		return err
	}
	return m.git.Checkout(ctx, path, "FETCH_HEAD")
}

// Release removes the workspace directory and drops the key lock. It is
// called via defer by the pipeline so it runs on every exit path; removal
// errors are logged, never fatal.
func (m *Manager) Release(ws *core.Workspace) {
	if ws == nil {
		return
	}
	if err := os.RemoveAll(ws.Path); err != nil {
		m.logger.Error("failed to remove workspace", "path", ws.Path, "error", err)
	} else {
		m.logger.Info("workspace released", "key", ws.Ref.Key())
	}
	m.keyLock(ws.Ref.Key()).Unlock()
}

func (m *Manager) keyLock(key string) *sync.Mutex {
	val, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	mu, ok := val.(*sync.Mutex)
	if !ok {
		// LoadOrStore only ever stores *sync.Mutex.
		panic("workspace: lock map holds unexpected type")
	}
	return mu
}
