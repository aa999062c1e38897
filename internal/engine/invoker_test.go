package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokerSuccess(t *testing.T) {
	inv := NewInvoker("sh", []string{"-c", "echo out; echo err >&2"}, time.Minute, nil)

	result, err := inv.Invoke(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
	assert.Equal(t, 0, result.ExitCode)
	assert.False(t, result.TimedOut)
}

func TestInvokerRunsInWorkDir(t *testing.T) {
	dir := t.TempDir()
	inv := NewInvoker("sh", []string{"-c", "pwd"}, time.Minute, nil)

	result, err := inv.Invoke(context.Background(), dir)
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, dir)
}

func TestInvokerNonZeroExit(t *testing.T) {
	inv := NewInvoker("sh", []string{"-c", "echo partial; exit 3"}, time.Minute, nil)

	result, err := inv.Invoke(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "partial\n", result.Stdout)
	assert.False(t, result.TimedOut)
}

func TestInvokerTimeout(t *testing.T) {
	inv := NewInvoker("sh", []string{"-c", "sleep 5"}, 100*time.Millisecond, nil)

	start := time.Now()
	result, err := inv.Invoke(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.Equal(t, -1, result.ExitCode)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestInvokerMissingCommand(t *testing.T) {
	inv := NewInvoker("definitely-not-a-real-command-xyz", nil, time.Minute, nil)

	result, err := inv.Invoke(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestCappedBufferRetainsPrefix(t *testing.T) {
	buf := newCappedBuffer(5)

	n, err := buf.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = buf.Write([]byte("defgh"))
	require.NoError(t, err)
	assert.Equal(t, 5, n, "writes report full length even when capped")

	assert.Equal(t, "abcde", buf.String())
	assert.True(t, buf.truncated)

	n, err = buf.Write([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "abcde", buf.String())
}
