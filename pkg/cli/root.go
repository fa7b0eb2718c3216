package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// BuildInfo carries the values injected at build time.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// NewRootCommand builds the command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:   "cannedmock <config_path> <tls_key_path> <tls_cert_path> <plain_port> <tls_port>",
		Short: "Serve canned HTTP responses and an echo endpoint over HTTP and HTTPS",
		Long: `cannedmock is a mock server for HTTP client integration tests.

It reads a JSON object mapping request paths to response bodies and answers
GET requests on each path with the configured body. POST /echo mirrors the
request headers and body back to the caller. The same routes are served on a
plain HTTP port and on a TLS port using the given key and certificate.

At startup the process id is written to mock_server_pid.txt next to the
executable so the test harness can stop the server afterwards.

Environment:
  CANNEDMOCK_LOG_LEVEL       debug, info, warn or error (default info)
  CANNEDMOCK_LOG_FORMAT      text or json (default text)
  CANNEDMOCK_PID_FILE        override the PID file location
  CANNEDMOCK_MAX_BODY_SIZE   request body ceiling in bytes (default 102400)`,
		Example: `  # Serve routes.json on 8080 (HTTP) and 8443 (HTTPS)
  cannedmock routes.json server.key server.crt 8080 8443

  # Create test TLS material first
  cannedmock gencert --key server.key --cert server.crt

  # Stop the server recorded in the PID file
  cannedmock stop`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseServeArgs(args)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), opts, cmd.OutOrStdout())
		},
		SilenceUsage:  true,
		SilenceErrors: true, // main prints the error
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newStopCommand(),
		newGencertCommand(),
		newVersionCommand(info),
	)
	return root
}

// Execute runs the command line with os.Args. The context passed to the
// commands is cancelled on SIGINT or SIGTERM.
func Execute(info BuildInfo) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand(info).ExecuteContext(ctx)
}
