package server

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/getmockd/cannedmock/pkg/logging"
	"github.com/getmockd/cannedmock/pkg/routes"
)

// DefaultMaxBodySize is the request body ceiling (100 KiB).
const DefaultMaxBodySize int64 = 100 * 1024

type handler struct {
	routes *routes.Table
	log    *slog.Logger
}

// NewHandler builds the handler set for table. Bodies above maxBodySize are
// rejected with 413; a non-positive value selects DefaultMaxBodySize.
func NewHandler(table *routes.Table, maxBodySize int64, log *slog.Logger) http.Handler {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if log == nil {
		log = logging.Nop()
	}

	h := &handler{routes: table, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+routes.EchoPath, h.echo)
	mux.HandleFunc("/", h.canned)

	return logRequests(log, limitBody(maxBodySize, mux))
}

// canned serves the configured body for GET and HEAD.
func (h *handler) canned(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == routes.EchoPath {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	body, ok := h.routes.Lookup(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, "GET, HEAD")
		return
	}

	// No Content-Type: net/http sniffs it from the body. The status is the
	// implicit 200 so sniffing still happens.
	_, _ = io.WriteString(w, body)
}

// echo mirrors the request headers and writes the body back unchanged.
// limitBody has already buffered and bounded r.Body.
func (h *handler) echo(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	header := w.Header()
	for name, values := range r.Header {
		header[name] = append([]string(nil), values...)
	}
	// net/http moves Host out of r.Header.
	if r.Host != "" {
		header.Set("Host", r.Host)
	}

	h.log.Info("echo request",
		"remote", r.RemoteAddr,
		"bytes", len(body),
		"body", string(body),
	)

	_, _ = w.Write(body)
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
