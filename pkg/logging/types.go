package logging

import (
	"fmt"
	"os"
	"strings"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	// LogLevelDebug is for debug messages
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is for informational messages
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is for warning messages
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is for error messages
	LogLevelError LogLevel = "error"
	// LogLevelPanic is for panic messages
	LogLevelPanic LogLevel = "panic"
)

// DefaultMaxLogSize is the size at which a log file is rotated
const DefaultMaxLogSize = 50 * 1024 * 1024

// App is the global application logger. Diagnostics go to stderr so that
// stdout carries only results.
var App = NewAppLogger(os.Stderr, LogLevelWarn)

// LevelFromVerbosity maps a -v count to a level: 0 warn, 1 info, 2+ debug
func LevelFromVerbosity(verbosity int) LogLevel {
	switch {
	case verbosity <= 0:
		return LogLevelWarn
	case verbosity == 1:
		return LogLevelInfo
	default:
		return LogLevelDebug
	}
}

// ParseLevel parses a level name, case insensitive
func ParseLevel(s string) (LogLevel, error) {
	switch level := LogLevel(strings.ToLower(strings.TrimSpace(s))); level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelPanic:
		return level, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// Initialize replaces the global logger. An empty logPath logs to stderr.
func Initialize(logPath string, level LogLevel) error {
	if level == "" {
		level = LogLevelWarn
	}

	if logPath == "" {
		App = NewAppLogger(os.Stderr, level)
		return nil
	}

	app, err := NewFileAppLogger(logPath, level, DefaultMaxLogSize)
	if err != nil {
		return fmt.Errorf("failed to initialize app logger: %w", err)
	}
	App = app
	return nil
}

// formatValue formats a value for logfmt, quoting if necessary
func formatValue(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	// Quote if contains space, equals, or quotes
	if strings.ContainsAny(s, " =\"") {
		s = strings.ReplaceAll(s, "\"", "\\\"")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
