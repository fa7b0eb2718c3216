package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/getmockd/cannedmock/internal/envconfig"
	"github.com/getmockd/cannedmock/pkg/logging"
	"github.com/getmockd/cannedmock/pkg/pidfile"
	"github.com/getmockd/cannedmock/pkg/routes"
	"github.com/getmockd/cannedmock/pkg/server"
)

// serveOptions are the positional arguments of the root command.
type serveOptions struct {
	ConfigPath string
	KeyPath    string
	CertPath   string
	PlainPort  int
	TLSPort    int
}

func parseServeArgs(args []string) (serveOptions, error) {
	if len(args) != 5 {
		return serveOptions{}, fmt.Errorf("expected 5 arguments, got %d", len(args))
	}

	plainPort, err := parsePort("plain_port", args[3])
	if err != nil {
		return serveOptions{}, err
	}
	tlsPort, err := parsePort("tls_port", args[4])
	if err != nil {
		return serveOptions{}, err
	}

	return serveOptions{
		ConfigPath: args[0],
		KeyPath:    args[1],
		CertPath:   args[2],
		PlainPort:  plainPort,
		TLSPort:    tlsPort,
	}, nil
}

// parsePort accepts 0..65535; 0 asks the OS for a free port.
func parsePort(name, value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: not a number", name, value)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("invalid %s %d: must be between 0 and 65535", name, port)
	}
	return port, nil
}

// runServe loads the route table, starts both listeners and blocks until ctx
// is cancelled or a listener fails.
func runServe(ctx context.Context, opts serveOptions, stdout io.Writer) error {
	env, err := envconfig.Load()
	if err != nil {
		return err
	}
	log, err := logging.FromStrings(env.LogLevel, env.LogFormat)
	if err != nil {
		return err
	}

	table, err := routes.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load routes: %w", err)
	}
	log.Info("route table loaded", "path", opts.ConfigPath, "routes", table.Len())
	for _, p := range table.Paths() {
		log.Debug("route registered", "method", "GET", "path", p)
	}

	pidPath := env.PIDFile
	if pidPath == "" {
		pidPath = pidfile.DefaultPath()
	}

	srv := server.New(server.Config{
		Routes:      table,
		PlainPort:   opts.PlainPort,
		TLSPort:     opts.TLSPort,
		KeyFile:     opts.KeyPath,
		CertFile:    opts.CertPath,
		PIDFile:     pidPath,
		MaxBodySize: env.MaxBodySize,
	}, server.WithLogger(log), server.WithBanner(stdout))

	if err := srv.Start(ctx); err != nil {
		return err
	}

	if err := srv.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
