// Package logging configures the SDK's loggers. All output goes to stderr
// because stdout is reserved for the handshake line.
package logging

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// EnvLog is the environment variable that selects the log level
// (trace, debug, info, warn, error). Unset means info.
const EnvLog = "HEMMER_LOG"

// New returns a named logger writing to stderr at the level selected by
// HEMMER_LOG.
func New(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  levelFromEnv(),
		Output: os.Stderr,
	})
}

// Default returns the logger used when a caller does not supply one.
func Default() hclog.Logger {
	return New("hemmer-provider")
}

func levelFromEnv() hclog.Level {
	raw := os.Getenv(EnvLog)
	if raw == "" {
		return hclog.Info
	}
	if level := hclog.LevelFromString(raw); level != hclog.NoLevel {
		return level
	}
	return hclog.Info
}
