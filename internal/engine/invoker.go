// Package engine invokes the external review engine and recovers structured
// findings from its loosely framed output.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/sevigo/pr-warden/internal/core"
)

const (
	// DefaultTimeout is the hard wall-clock bound on one engine run.
	DefaultTimeout = 120 * time.Second

	// MaxOutputBytes caps how much stdout/stderr is retained per stream.
	MaxOutputBytes = 10 << 20
)

// ErrToolTimeout marks an invocation that was terminated at the wall-clock
// bound. It is recoverable: the review continues with zero findings.
var ErrToolTimeout = errors.New("review tool timed out")

// Invoker runs the review engine as a subprocess scoped to a workspace
// directory.
type Invoker struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewInvoker creates an Invoker for the given command line. A non-positive
// timeout falls back to DefaultTimeout.
func NewInvoker(command string, args []string, timeout time.Duration, logger *slog.Logger) *Invoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{command: command, args: args, timeout: timeout, logger: logger}
}

// Invoke runs the engine in workDir and returns the structured result.
// The process is killed at the timeout; both output streams are retained up
// to MaxOutputBytes each. A non-nil error means the process could not be
// run at all; exit status and timeout are reported through the result.
func (i *Invoker) Invoke(ctx context.Context, workDir string) (*core.ToolInvocationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	stdout := newCappedBuffer(MaxOutputBytes)
	stderr := newCappedBuffer(MaxOutputBytes)

	cmd := exec.CommandContext(ctx, i.command, i.args...)
	cmd.Dir = workDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	i.logger.Info("invoking review engine", "command", i.command, "dir", workDir, "timeout", i.timeout)
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Round(time.Millisecond)

	result := &core.ToolInvocationResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
	}

	switch {
	case err == nil:
		i.logger.Info("review engine finished", "elapsed", elapsed)
		return result, nil
	case result.TimedOut:
		result.ExitCode = -1
		i.logger.Warn("review engine timed out", "elapsed", elapsed)
		return result, nil
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			i.logger.Warn("review engine exited with error", "exit_code", result.ExitCode, "elapsed", elapsed)
			return result, nil
		}
		return nil, fmt.Errorf("failed to run review engine %q: %w", i.command, err)
	}
}

// cappedBuffer retains the first max bytes written and silently discards the
// rest, so a runaway engine cannot exhaust memory.
type cappedBuffer struct {
	buf       []byte
	max       int
	truncated bool
}

func newCappedBuffer(max int) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if remaining := b.max - len(b.buf); remaining > 0 {
		if len(p) > remaining {
			b.buf = append(b.buf, p[:remaining]...)
			b.truncated = true
		} else {
			b.buf = append(b.buf, p...)
		}
	} else if len(p) > 0 {
		b.truncated = true
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	return string(b.buf)
}
