//go:build windows

package pidfile

import (
	"os"

	"golang.org/x/sys/windows"
)

// Signals used by the stop command. Windows has no SIGTERM.
var (
	SignalTerm = os.Interrupt
	SignalKill = os.Kill
)

// IsRunning reports whether a process with the given pid exists.
func IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	handle, err := windows.OpenProcess(windows.SYNCHRONIZE|windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer func() { _ = windows.CloseHandle(handle) }()

	event, err := windows.WaitForSingleObject(handle, 0)
	if err != nil {
		return false
	}
	return event == uint32(windows.WAIT_TIMEOUT)
}
