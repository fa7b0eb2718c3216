package cli

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/cannedmock/internal/envconfig"
	"github.com/getmockd/cannedmock/pkg/pidfile"
	"github.com/getmockd/cannedmock/pkg/routes"
	mocktls "github.com/getmockd/cannedmock/pkg/tls"
)

// syncBuffer is a bytes.Buffer safe for one writer and one poller.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(BuildInfo{Version: "1.2.3", Commit: "abc123", BuildDate: "2026-01-01"})
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

type fixture struct {
	dir      string
	routes   string
	key      string
	cert     string
	pidFile  string
	certPool *x509.CertPool
}

func newFixture(t *testing.T, routeJSON string) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		routes:  filepath.Join(dir, "routes.json"),
		key:     filepath.Join(dir, "server.key"),
		cert:    filepath.Join(dir, "server.crt"),
		pidFile: filepath.Join(dir, pidfile.FileName),
	}
	require.NoError(t, os.WriteFile(f.routes, []byte(routeJSON), 0644))

	_, err := execute(t, context.Background(), "gencert", "--key", f.key, "--cert", f.cert)
	require.NoError(t, err)

	certPEM, err := os.ReadFile(f.cert)
	require.NoError(t, err)
	f.certPool = x509.NewCertPool()
	require.True(t, f.certPool.AppendCertsFromPEM(certPEM))

	t.Setenv(envconfig.EnvPIDFile, f.pidFile)
	t.Setenv(envconfig.EnvLogLevel, "error")
	return f
}

var bannerRe = regexp.MustCompile(`Mock server is running on (https?)://localhost:(\d+) with PID:(\d+)`)

// TestServe_EndToEnd runs the documented scenario: {"/status": "ok"} served on
// both listeners, and the echo endpoint mirroring a header and body.
func TestServe_EndToEnd(t *testing.T) {
	f := newFixture(t, `{"/status": "ok"}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	cmd := NewRootCommand(BuildInfo{})
	cmd.SetArgs([]string{f.routes, f.key, f.cert, "0", "0"})
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	var matches [][]string
	require.Eventually(t, func() bool {
		matches = bannerRe.FindAllStringSubmatch(out.String(), -1)
		return len(matches) == 2
	}, 5*time.Second, 20*time.Millisecond, "banner lines not printed: %q", out.String())

	ports := map[string]string{}
	for _, m := range matches {
		ports[m[1]] = m[2]
		assert.Equal(t, strconv.Itoa(os.Getpid()), m[3])
	}

	pid, err := pidfile.Read(f.pidFile)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: f.certPool}},
	}

	for scheme, port := range ports {
		base := scheme + "://localhost:" + port

		resp, err := client.Get(base + "/status")
		require.NoError(t, err, scheme)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, scheme)
		assert.Equal(t, "ok", string(body), scheme)

		resp, err = client.Get(base + "/nope")
		require.NoError(t, err, scheme)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, scheme)

		req, err := http.NewRequest(http.MethodPost, base+"/echo", strings.NewReader("hello"))
		require.NoError(t, err)
		req.Header.Set("X-Test", "1")
		resp, err = client.Do(req)
		require.NoError(t, err, scheme)
		body, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, "hello", string(body), scheme)
		assert.Equal(t, "1", resp.Header.Get("X-Test"), scheme)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}

func TestServe_InvalidConfigFailsBeforePIDFile(t *testing.T) {
	f := newFixture(t, `{"/status": {"nested": true}}`)

	_, err := execute(t, context.Background(), f.routes, f.key, f.cert, "0", "0")
	require.Error(t, err)
	assert.ErrorIs(t, err, routes.ErrNonStringBody)

	_, statErr := os.Stat(f.pidFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestServe_MissingConfig(t *testing.T) {
	f := newFixture(t, `{}`)

	_, err := execute(t, context.Background(), filepath.Join(f.dir, "absent.json"), f.key, f.cert, "0", "0")
	assert.ErrorIs(t, err, routes.ErrFileNotFound)
}

func TestServe_UnreadableTLSMaterial(t *testing.T) {
	f := newFixture(t, `{"/status": "ok"}`)

	out, err := execute(t, context.Background(), f.routes, filepath.Join(f.dir, "absent.key"), f.cert, "0", "0")
	require.Error(t, err)
	assert.ErrorIs(t, err, mocktls.ErrKeyUnreadable)

	// plain listener had already come up
	assert.Contains(t, out, "http://localhost:")
	assert.NotContains(t, out, "https://")
}

func TestServe_InvalidEnvironment(t *testing.T) {
	f := newFixture(t, `{"/status": "ok"}`)
	t.Setenv(envconfig.EnvLogLevel, "chatty")

	_, err := execute(t, context.Background(), f.routes, f.key, f.cert, "0", "0")
	assert.Error(t, err)
}

func TestRoot_ArgumentCount(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"routes.json"},
		{"routes.json", "k", "c", "8080"},
		{"routes.json", "k", "c", "8080", "8443", "extra"},
	} {
		_, err := execute(t, context.Background(), args...)
		assert.Error(t, err, args)
	}
}

func TestParseServeArgs(t *testing.T) {
	opts, err := parseServeArgs([]string{"r.json", "k.pem", "c.pem", "8080", "8443"})
	require.NoError(t, err)
	assert.Equal(t, serveOptions{
		ConfigPath: "r.json",
		KeyPath:    "k.pem",
		CertPath:   "c.pem",
		PlainPort:  8080,
		TLSPort:    8443,
	}, opts)

	_, err = parseServeArgs([]string{"r.json", "k.pem", "c.pem", "http", "8443"})
	assert.ErrorContains(t, err, "plain_port")

	_, err = parseServeArgs([]string{"r.json", "k.pem", "c.pem", "8080", "70000"})
	assert.ErrorContains(t, err, "tls_port")

	_, err = parseServeArgs([]string{"r.json"})
	assert.Error(t, err)
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"80", 80, false},
		{"65535", 65535, false},
		{"65536", 0, true},
		{"-1", 0, true},
		{"", 0, true},
		{"8080/tcp", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePort("port", tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGencert(t *testing.T) {
	dir := t.TempDir()
	key := filepath.Join(dir, "tls", "k.pem")
	cert := filepath.Join(dir, "tls", "c.pem")

	out, err := execute(t, context.Background(), "gencert", "--key", key, "--cert", cert,
		"--host", "mock.test", "--host", "127.0.0.1", "--valid-for", "2h")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote key to "+key)

	cfg, err := mocktls.LoadKeyPair(key, cert)
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)

	leaf, err := x509.ParseCertificate(cfg.Certificates[0].Certificate[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"mock.test"}, leaf.DNSNames)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), leaf.NotAfter, 2*time.Minute)
}

func TestGencert_RequiresPaths(t *testing.T) {
	_, err := execute(t, context.Background(), "gencert", "--key", filepath.Join(t.TempDir(), "k.pem"))
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cannedmock v1.2.3 (abc123, 2026-01-01)")
}

func TestResolveVersion_Defaults(t *testing.T) {
	v := resolveVersion(BuildInfo{})
	assert.NotEmpty(t, v.Version)
	assert.NotEmpty(t, v.Commit)
	assert.NotEmpty(t, v.BuildDate)
}

func TestStop_NoPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), pidfile.FileName)

	_, err := execute(t, context.Background(), "stop", "--pid-file", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestStop_RefusesOwnProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), pidfile.FileName)
	require.NoError(t, pidfile.WriteCurrent(path))

	_, err := execute(t, context.Background(), "stop", "--pid-file", path)
	assert.Error(t, err)
}

func TestResolvePIDPath(t *testing.T) {
	got, err := resolvePIDPath("/flag/path")
	require.NoError(t, err)
	assert.Equal(t, "/flag/path", got)

	t.Setenv(envconfig.EnvPIDFile, "/env/path")
	got, err = resolvePIDPath("")
	require.NoError(t, err)
	assert.Equal(t, "/env/path", got)

	t.Setenv(envconfig.EnvPIDFile, "")
	got, err = resolvePIDPath("")
	require.NoError(t, err)
	assert.Equal(t, pidfile.DefaultPath(), got)
}
