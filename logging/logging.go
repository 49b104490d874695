// Package logging builds the structured logger every component writes warnings and
// errors to.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

const Prefix = "themedmark"

// ParseLevel accepts debug, info, warn or error.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, nil
	case "", "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// New returns a logger writing to w at level.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          Prefix,
		ReportTimestamp: true,
	})
}

// Component derives a sub-logger for one part of the system, e.g. "watcher".
func Component(l *log.Logger, name string) *log.Logger {
	return l.WithPrefix(Prefix + "/" + name)
}
