//go:build !windows

package cli

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/cannedmock/pkg/pidfile"
)

// startSleeper launches a child process and reaps it in the background so
// that it disappears from the process table once signalled.
func startSleeper(t *testing.T) *exec.Cmd {
	t.Helper()
	child := exec.Command("sleep", "30")
	require.NoError(t, child.Start())

	go func() { _ = child.Wait() }()
	t.Cleanup(func() { _ = child.Process.Kill() })
	return child
}

func TestStop_TerminatesProcess(t *testing.T) {
	child := startSleeper(t)
	path := filepath.Join(t.TempDir(), pidfile.FileName)
	require.NoError(t, pidfile.Write(path, child.Process.Pid))

	out, err := execute(t, context.Background(), "stop", "--pid-file", path, "--timeout", "5s")
	require.NoError(t, err)
	assert.Contains(t, out, "done")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "PID file should be removed")
}

func TestStop_Force(t *testing.T) {
	child := startSleeper(t)
	path := filepath.Join(t.TempDir(), pidfile.FileName)
	require.NoError(t, pidfile.Write(path, child.Process.Pid))

	out, err := execute(t, context.Background(), "stop", "--pid-file", path, "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "killed")
}

func TestStop_StalePIDFile(t *testing.T) {
	child := exec.Command("true")
	require.NoError(t, child.Run())

	path := filepath.Join(t.TempDir(), pidfile.FileName)
	require.NoError(t, pidfile.Write(path, child.ProcessState.Pid()))

	_, err := execute(t, context.Background(), "stop", "--pid-file", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
