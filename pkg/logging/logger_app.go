package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	golog "github.com/fclairamb/go-log"
)

var levelOrder = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
	LogLevelPanic: 4,
}

// AppLogger implements the go-log.Logger interface with logfmt key/values
type AppLogger struct {
	level   LogLevel
	logger  *log.Logger
	closer  io.Closer
	keyvals []interface{}
}

var _ golog.Logger = (*AppLogger)(nil)

// NewAppLogger creates a logger writing to w
func NewAppLogger(w io.Writer, level LogLevel) *AppLogger {
	return &AppLogger{
		level:  level,
		logger: log.New(w, "", 0), // No flags, we'll handle formatting ourselves
	}
}

// NewFileAppLogger creates a logger writing to a size-rotated file
func NewFileAppLogger(logPath string, level LogLevel, maxSize int64) (*AppLogger, error) {
	rw, err := NewRotatingWriter(logPath, maxSize)
	if err != nil {
		return nil, fmt.Errorf("creating rotating writer: %w", err)
	}

	l := NewAppLogger(rw, level)
	l.closer = rw
	return l, nil
}

func (l *AppLogger) shouldLog(level LogLevel) bool {
	return levelOrder[level] >= levelOrder[l.level]
}

func (l *AppLogger) log(level LogLevel, message string, keyvals ...interface{}) {
	if !l.shouldLog(level) {
		return
	}

	all := keyvals
	if len(l.keyvals) > 0 {
		all = append(append([]interface{}{}, l.keyvals...), keyvals...)
	}

	var kvStrings []string
	for i := 0; i+1 < len(all); i += 2 {
		kvStrings = append(kvStrings, fmt.Sprintf("%s=%s", toString(all[i]), formatValue(toString(all[i+1]))))
	}

	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 -0700")
	if len(kvStrings) == 0 {
		l.logger.Printf("%s %s: %s", timestamp, level, message)
		return
	}
	l.logger.Printf("%s %s: %s %s", timestamp, level, message, strings.Join(kvStrings, " "))
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}

	str := fmt.Sprintf("%v", v)
	str = strings.ReplaceAll(str, "\n", " ")
	str = strings.ReplaceAll(str, "\r", " ")
	str = strings.ReplaceAll(str, "\t", " ")
	// Collapse multiple spaces into one
	return strings.Join(strings.Fields(str), " ")
}

// Debug implements go-log.Logger
func (l *AppLogger) Debug(message string, keyvals ...interface{}) {
	l.log(LogLevelDebug, message, keyvals...)
}

// Info implements go-log.Logger
func (l *AppLogger) Info(message string, keyvals ...interface{}) {
	l.log(LogLevelInfo, message, keyvals...)
}

// Warn implements go-log.Logger
func (l *AppLogger) Warn(message string, keyvals ...interface{}) {
	l.log(LogLevelWarn, message, keyvals...)
}

// Error implements go-log.Logger
func (l *AppLogger) Error(message string, keyvals ...interface{}) {
	l.log(LogLevelError, message, keyvals...)
}

// Panic implements go-log.Logger
func (l *AppLogger) Panic(message string, keyvals ...interface{}) {
	l.log(LogLevelPanic, message, keyvals...)
}

// With returns a logger that prefixes every entry with keyvals
func (l *AppLogger) With(keyvals ...interface{}) golog.Logger {
	child := *l
	child.keyvals = append(append([]interface{}{}, l.keyvals...), keyvals...)
	child.closer = nil
	return &child
}

// Close closes the underlying log file, if any
func (l *AppLogger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
