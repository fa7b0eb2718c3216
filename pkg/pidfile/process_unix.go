//go:build !windows

package pidfile

import (
	"os"
	"syscall"
)

// Signals used by the stop command.
var (
	SignalTerm os.Signal = syscall.SIGTERM
	SignalKill os.Signal = syscall.SIGKILL
)

// IsRunning reports whether a process with the given pid exists.
func IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// FindProcess always succeeds on Unix; signal 0 probes for existence.
	return process.Signal(syscall.Signal(0)) == nil
}
