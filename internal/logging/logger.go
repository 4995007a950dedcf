// Package logging provides structured logging for lnprobe with consistent
// formatting and context support. It wraps zerolog to provide levelled logging
// with key-value pairs and child loggers that carry context fields.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents a log level.
type Level int

const (
	// LevelDebug is for verbose debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for recoverable errors and warnings.
	LevelWarn
	// LevelError is for significant errors that may impact functionality.
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

var zerologLevels = map[Level]zerolog.Level{
	LevelDebug: zerolog.DebugLevel,
	LevelInfo:  zerolog.InfoLevel,
	LevelWarn:  zerolog.WarnLevel,
	LevelError: zerolog.ErrorLevel,
}

// String returns the lower-case level name.
func (lv Level) String() string {
	if name, ok := levelNames[lv]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(lv))
}

// ParseLevel converts a level name into a Level. Matching is case-insensitive
// and "warning" is accepted as an alias for "warn".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger provides structured logging with context.
type Logger struct {
	mu       sync.RWMutex
	minLevel Level
	fields   map[string]interface{}
	output   zerolog.Logger
}

var (
	// defaultLogger is the package-level logger.
	defaultLogger = New()
)

func init() {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
}

// New creates a new Logger writing human-readable lines to stderr.
func New() *Logger {
	return &Logger{
		minLevel: LevelWarn, // Default to warn level
		fields:   make(map[string]interface{}),
		output:   newZerolog(NewConsoleWriter(os.Stderr, !isTerminal(os.Stderr))),
	}
}

func newZerolog(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// NewConsoleWriter returns a zerolog console writer with the timestamp format
// used across lnprobe output.
func NewConsoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// Level returns the minimum log level.
func (l *Logger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.minLevel
}

// SetOutput sets the destination writer. Writers other than a console writer
// receive one JSON object per line.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = newZerolog(w)
}

// With returns a new Logger with additional context fields.
func (l *Logger) With(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a new Logger with multiple additional context fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &Logger{
		minLevel: l.minLevel,
		fields:   newFields,
		output:   l.output,
	}
}

// log writes a log entry at the given level.
func (l *Logger) log(level Level, msg string, keyVals ...interface{}) {
	l.mu.RLock()
	minLevel := l.minLevel
	output := l.output
	fields := l.fields
	l.mu.RUnlock()

	if level < minLevel {
		return
	}

	allFields := make(map[string]interface{}, len(fields)+len(keyVals)/2)
	for k, v := range fields {
		allFields[k] = v
	}
	for i := 0; i+1 < len(keyVals); i += 2 {
		if key, ok := keyVals[i].(string); ok {
			allFields[key] = keyVals[i+1]
		}
	}

	event := output.WithLevel(zerologLevels[level])
	if len(allFields) > 0 {
		event = event.Fields(allFields)
	}
	event.Msg(msg)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keyVals ...interface{}) {
	l.log(LevelDebug, msg, keyVals...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, keyVals ...interface{}) {
	l.log(LevelInfo, msg, keyVals...)
}

// Warn logs at warn level (for recoverable errors).
func (l *Logger) Warn(msg string, keyVals ...interface{}) {
	l.log(LevelWarn, msg, keyVals...)
}

// Error logs at error level (for significant errors).
func (l *Logger) Error(msg string, keyVals ...interface{}) {
	l.log(LevelError, msg, keyVals...)
}

// Package-level functions that use the default logger.

// Default returns the package-level logger.
func Default() *Logger {
	return defaultLogger
}

// SetLevel sets the minimum log level for the default logger.
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// SetOutput sets the output for the default logger.
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

// With returns a new Logger with additional context from the default logger.
func With(key string, value interface{}) *Logger {
	return defaultLogger.With(key, value)
}

// WithFields returns a new Logger with multiple additional context fields.
func WithFields(fields map[string]interface{}) *Logger {
	return defaultLogger.WithFields(fields)
}

// Debug logs at debug level using the default logger.
func Debug(msg string, keyVals ...interface{}) {
	defaultLogger.Debug(msg, keyVals...)
}

// Info logs at info level using the default logger.
func Info(msg string, keyVals ...interface{}) {
	defaultLogger.Info(msg, keyVals...)
}

// Warn logs at warn level using the default logger.
func Warn(msg string, keyVals ...interface{}) {
	defaultLogger.Warn(msg, keyVals...)
}

// Error logs at error level using the default logger.
func Error(msg string, keyVals ...interface{}) {
	defaultLogger.Error(msg, keyVals...)
}
