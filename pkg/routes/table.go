package routes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// EchoPath is the fixed path of the echo endpoint. It cannot be configured
// as a canned route.
const EchoPath = "/echo"

// Validation errors for route table contents.
var (
	ErrNotObject     = errors.New("route table must be an object mapping paths to bodies")
	ErrNonStringBody = errors.New("response body must be a string")
	ErrInvalidPath   = errors.New("invalid route path")
	ErrDuplicatePath = errors.New("duplicate route path")
	ErrReservedPath  = errors.New("route path is reserved")
)

// Table is an immutable mapping from request path to response body.
type Table struct {
	bodies map[string]string
}

// New builds a Table from path/body pairs, validating every path.
// The map is copied.
func New(entries map[string]string) (*Table, error) {
	bodies := make(map[string]string, len(entries))
	for path, body := range entries {
		if err := ValidatePath(path); err != nil {
			return nil, err
		}
		bodies[path] = body
	}
	return &Table{bodies: bodies}, nil
}

// ValidatePath reports whether path can be used as a canned route.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	case !strings.HasPrefix(path, "/"):
		return fmt.Errorf("%w: %q must begin with /", ErrInvalidPath, path)
	case strings.ContainsAny(path, "?# \t\r\n"):
		return fmt.Errorf("%w: %q contains a query, fragment or whitespace", ErrInvalidPath, path)
	case path == EchoPath:
		return fmt.Errorf("%w: %s is served by the echo endpoint", ErrReservedPath, path)
	}
	return nil
}

// Lookup returns the body configured for path.
func (t *Table) Lookup(path string) (string, bool) {
	if t == nil {
		return "", false
	}
	body, ok := t.bodies[path]
	return body, ok
}

// Len returns the number of routes.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.bodies)
}

// Paths returns the configured paths in lexical order.
func (t *Table) Paths() []string {
	if t == nil {
		return nil
	}
	paths := make([]string, 0, len(t.bodies))
	for p := range t.bodies {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
