package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/getmockd/cannedmock/internal/envconfig"
	"github.com/getmockd/cannedmock/pkg/pidfile"
	"github.com/spf13/cobra"
)

const stopPollInterval = 100 * time.Millisecond

func newStopCommand() *cobra.Command {
	var (
		pidPath string
		force   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the mock server recorded in the PID file",
		Long: `Stop the running mock server.

The process id is read from the PID file (default: mock_server_pid.txt next
to the executable, or $CANNEDMOCK_PID_FILE). SIGTERM lets the server finish
in-flight requests; --force sends SIGKILL.`,
		Example: `  cannedmock stop
  cannedmock stop --pid-file /tmp/mock_server_pid.txt --timeout 30s
  cannedmock stop --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePIDPath(pidPath)
			if err != nil {
				return err
			}
			return runStop(cmd.OutOrStdout(), path, force, timeout)
		},
	}

	cmd.Flags().StringVar(&pidPath, "pid-file", "", "Path to PID file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Send SIGKILL instead of SIGTERM")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait for the process to exit")
	return cmd
}

// resolvePIDPath picks the flag value, then the environment, then the
// default location.
func resolvePIDPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	env, err := envconfig.Load()
	if err != nil {
		return "", err
	}
	if env.PIDFile != "" {
		return env.PIDFile, nil
	}
	return pidfile.DefaultPath(), nil
}

func runStop(out io.Writer, pidPath string, force bool, timeout time.Duration) error {
	pid, err := pidfile.Read(pidPath)
	if err != nil {
		if errors.Is(err, pidfile.ErrNotFound) {
			return fmt.Errorf("mock server is not running (no PID file at %s)", pidPath)
		}
		return err
	}

	if !pidfile.IsRunning(pid) {
		_ = pidfile.Remove(pidPath)
		return errors.New("mock server is not running (stale PID file removed)")
	}
	if pid == os.Getpid() {
		return fmt.Errorf("PID file %s points at this process", pidPath)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	sig := pidfile.SignalTerm
	if force {
		sig = pidfile.SignalKill
	}

	_, _ = fmt.Fprintf(out, "Stopping mock server (PID %d) with %s... ", pid, sig)
	if err := process.Signal(sig); err != nil {
		_, _ = fmt.Fprintln(out, "failed")
		return fmt.Errorf("failed to send signal: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !pidfile.IsRunning(pid) {
			_, _ = fmt.Fprintln(out, "done")
			_ = pidfile.Remove(pidPath)
			return nil
		}
		time.Sleep(stopPollInterval)
	}

	_, _ = fmt.Fprintln(out, "timeout")
	return fmt.Errorf("process %d did not exit within %s (try --force)", pid, timeout)
}
