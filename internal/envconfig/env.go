// Package envconfig reads the ambient settings that the positional command
// line does not carry.
package envconfig

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names
const (
	EnvLogLevel    = "CANNEDMOCK_LOG_LEVEL"
	EnvLogFormat   = "CANNEDMOCK_LOG_FORMAT"
	EnvPIDFile     = "CANNEDMOCK_PID_FILE"
	EnvMaxBodySize = "CANNEDMOCK_MAX_BODY_SIZE"
)

// Settings holds values read from the environment. Zero values mean unset.
type Settings struct {
	LogLevel    string
	LogFormat   string
	PIDFile     string
	MaxBodySize int64
}

// Load reads Settings from the process environment.
func Load() (Settings, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads Settings through lookup, which has the signature of
// os.LookupEnv.
func LoadFrom(lookup func(string) (string, bool)) (Settings, error) {
	var s Settings

	if v, ok := lookup(EnvLogLevel); ok {
		s.LogLevel = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		s.LogFormat = v
	}
	if v, ok := lookup(EnvPIDFile); ok {
		s.PIDFile = v
	}

	// CANNEDMOCK_MAX_BODY_SIZE, in bytes
	if v, ok := lookup(EnvMaxBodySize); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Settings{}, fmt.Errorf("%s must be a positive number of bytes, got %q", EnvMaxBodySize, v)
		}
		s.MaxBodySize = n
	}

	return s, nil
}
