package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/getmockd/cannedmock/pkg/logging"
	"github.com/getmockd/cannedmock/pkg/pidfile"
	"github.com/getmockd/cannedmock/pkg/routes"
	mocktls "github.com/getmockd/cannedmock/pkg/tls"
)

// Defaults for the optional Config fields.
const (
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 5 * time.Second
)

// Config is everything the server needs, built once at startup.
type Config struct {
	// Routes is the canned route table.
	Routes *routes.Table

	// Host is the bind address. Empty binds all interfaces.
	Host string

	// PlainPort and TLSPort are the listener ports; 0 picks a free port.
	PlainPort int
	TLSPort   int

	// KeyFile and CertFile are the PEM encoded TLS material.
	KeyFile  string
	CertFile string

	// PIDFile, when set, receives the process id before any listener binds.
	PIDFile string

	// MaxBodySize caps request bodies. Defaults to DefaultMaxBodySize.
	MaxBodySize int64

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server runs the plain and TLS listeners over one handler set.
type Server struct {
	cfg     Config
	log     *slog.Logger
	banner  io.Writer
	pid     int
	handler http.Handler

	mu       sync.Mutex
	started  bool
	plain    *http.Server
	secure   *http.Server
	plainLn  net.Listener
	secureLn net.Listener
	group    *errgroup.Group
	cancel   context.CancelFunc
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithBanner sets where the human-readable "Mock server is running" lines
// are printed. Defaults to os.Stdout; nil disables them.
func WithBanner(w io.Writer) Option {
	return func(s *Server) {
		s.banner = w
	}
}

// New creates a Server. Nothing is bound until Start.
func New(cfg Config, opts ...Option) *Server {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		cfg:    cfg,
		log:    logging.Nop(),
		banner: os.Stdout,
		pid:    os.Getpid(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = NewHandler(cfg.Routes, cfg.MaxBodySize, s.log)
	return s
}

// Handler returns the handler set shared by both listeners.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start writes the PID file, binds the plain listener, loads the TLS
// material and binds the TLS listener, in that order. Both listeners serve
// in the background until ctx is cancelled, Shutdown is called, or one of
// them fails.
//
// On error nothing is left running.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("server is already started")
	}
	if s.cfg.Routes == nil {
		return errors.New("route table is required")
	}

	if s.cfg.PIDFile != "" {
		if err := pidfile.Write(s.cfg.PIDFile, s.pid); err != nil {
			return err
		}
		s.log.Debug("wrote PID file", "path", s.cfg.PIDFile, "pid", s.pid)
	}

	gctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(gctx)
	s.group = group
	s.cancel = cancel

	// Both servers exist before anything binds so the shutdown watcher never
	// races the assignments below. Shutdown before Serve makes Serve return
	// immediately.
	s.plain = s.newHTTPServer()
	s.secure = s.newHTTPServer()
	group.Go(func() error {
		<-gctx.Done()
		return s.shutdownServers()
	})

	var lc net.ListenConfig

	plainLn, err := lc.Listen(ctx, "tcp", s.addr(s.cfg.PlainPort))
	if err != nil {
		s.abort()
		return fmt.Errorf("failed to bind HTTP listener on port %d: %w", s.cfg.PlainPort, err)
	}
	s.plainLn = plainLn
	group.Go(func() error {
		return serveErr("HTTP", s.plain.Serve(plainLn))
	})
	s.announce("http", plainLn)

	tlsConfig, err := mocktls.LoadKeyPair(s.cfg.KeyFile, s.cfg.CertFile)
	if err != nil {
		s.abort()
		return err
	}
	if len(tlsConfig.NextProtos) == 0 {
		tlsConfig.NextProtos = []string{"h2", "http/1.1"}
	}

	secureLn, err := lc.Listen(ctx, "tcp", s.addr(s.cfg.TLSPort))
	if err != nil {
		s.abort()
		return fmt.Errorf("failed to bind HTTPS listener on port %d: %w", s.cfg.TLSPort, err)
	}
	s.secureLn = secureLn
	group.Go(func() error {
		return serveErr("HTTPS", s.secure.Serve(tls.NewListener(secureLn, tlsConfig)))
	})
	s.announce("https", secureLn)

	s.started = true
	return nil
}

// Wait blocks until both listeners have stopped and returns the first
// serve or shutdown error. A listener failure stops the other one.
func (s *Server) Wait() error {
	s.mu.Lock()
	group := s.group
	s.mu.Unlock()

	if group == nil {
		return errors.New("server is not started")
	}
	return group.Wait()
}

// Shutdown gracefully stops both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	group, cancel := s.group, s.cancel
	s.mu.Unlock()

	if group == nil {
		return nil
	}
	cancel()

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PlainAddr returns the bound address of the plain listener, or nil.
func (s *Server) PlainAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plainLn == nil {
		return nil
	}
	return s.plainLn.Addr()
}

// TLSAddr returns the bound address of the TLS listener, or nil.
func (s *Server) TLSAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secureLn == nil {
		return nil
	}
	return s.secureLn.Addr()
}

func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}
}

func (s *Server) addr(port int) string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))
}

func (s *Server) announce(scheme string, ln net.Listener) {
	port := 0
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}
	url := fmt.Sprintf("%s://localhost:%d", scheme, port)

	if s.banner != nil {
		_, _ = fmt.Fprintf(s.banner, "Mock server is running on %s with PID:%d\n", url, s.pid)
	}
	s.log.Info("listening", "url", url, "pid", s.pid, "routes", s.cfg.Routes.Len())
}

// abort stops whatever Start already launched. Caller holds s.mu.
func (s *Server) abort() {
	s.cancel()
	_ = s.group.Wait()
	if s.secureLn != nil {
		_ = s.secureLn.Close()
	}
	s.group, s.cancel = nil, nil
	s.plainLn, s.secureLn = nil, nil
}

func (s *Server) shutdownServers() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	for _, srv := range []*http.Server{s.plain, s.secure} {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func serveErr(name string, err error) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("%s server: %w", name, err)
}
