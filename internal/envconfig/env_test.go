package envconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadFrom_Empty(t *testing.T) {
	s, err := LoadFrom(lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, Settings{}, s)
}

func TestLoadFrom_AllSet(t *testing.T) {
	s, err := LoadFrom(lookupFrom(map[string]string{
		EnvLogLevel:    "debug",
		EnvLogFormat:   "json",
		EnvPIDFile:     "/tmp/mock.pid",
		EnvMaxBodySize: "2048",
	}))
	require.NoError(t, err)
	assert.Equal(t, Settings{
		LogLevel:    "debug",
		LogFormat:   "json",
		PIDFile:     "/tmp/mock.pid",
		MaxBodySize: 2048,
	}, s)
}

func TestLoadFrom_InvalidMaxBodySize(t *testing.T) {
	for _, v := range []string{"abc", "0", "-1", "1.5"} {
		_, err := LoadFrom(lookupFrom(map[string]string{EnvMaxBodySize: v}))
		assert.Error(t, err, v)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMaxBodySize, "10")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, int64(10), s.MaxBodySize)
}
