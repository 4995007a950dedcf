package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/lnprobe/internal/config"
)

// entries decodes the JSON lines written to buf.
func entries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		out = append(out, entry)
	}
	return out
}

func newTestLogger(buf *bytes.Buffer) *Logger {
	logger := New()
	logger.SetLevel(LevelDebug)
	logger.SetOutput(buf)
	return logger
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug allowed at debug", LevelDebug, LevelDebug, true},
		{"error allowed at debug", LevelDebug, LevelError, true},
		{"debug blocked at info", LevelInfo, LevelDebug, false},
		{"info allowed at info", LevelInfo, LevelInfo, true},
		{"info blocked at warn", LevelWarn, LevelInfo, false},
		{"warn allowed at warn", LevelWarn, LevelWarn, true},
		{"warn blocked at error", LevelError, LevelWarn, false},
		{"error allowed at error", LevelError, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New()
			logger.SetLevel(tt.minLevel)
			logger.SetOutput(&buf)

			switch tt.logLevel {
			case LevelDebug:
				logger.Debug("test message")
			case LevelInfo:
				logger.Info("test message")
			case LevelWarn:
				logger.Warn("test message")
			case LevelError:
				logger.Error("test message")
			}

			if !tt.shouldLog {
				assert.Empty(t, buf.String(), "expected no log output")
				return
			}
			got := entries(t, &buf)
			require.Len(t, got, 1)
			assert.Equal(t, "test message", got[0]["message"])
			assert.Equal(t, tt.logLevel.String(), got[0]["level"])
			assert.Contains(t, got[0], "time")
		})
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.With("session", "abc123").Warn("something happened")

	got := entries(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "something happened", got[0]["message"])
	assert.Equal(t, "abc123", got[0]["session"])
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.WithFields(map[string]interface{}{
		"session": "abc123",
		"peer":    "127.0.0.1:60001",
	}).Error("error occurred")

	got := entries(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "error", got[0]["level"])
	assert.Equal(t, "abc123", got[0]["session"])
	assert.Equal(t, "127.0.0.1:60001", got[0]["peer"])
}

func TestLoggerInlineKeyVals(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Warn("read failed", "error", errors.New("timeout"), "cycle", 3)

	got := entries(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "timeout", got[0]["error"])
	assert.Equal(t, float64(3), got[0]["cycle"])
}

func TestLoggerIgnoresNonStringKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Info("odd", 42, "value", "dangling")

	got := entries(t, &buf)
	require.Len(t, got, 1)
	assert.NotContains(t, got[0], "value")
	assert.NotContains(t, got[0], "dangling")
}

func TestLoggerChainingPreservesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.With("session", "abc123").With("operation", "dial").Info("starting")

	got := entries(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "abc123", got[0]["session"])
	assert.Equal(t, "dial", got[0]["operation"])
}

func TestLoggerOriginalUnmodified(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	_ = logger.With("session", "abc123")
	logger.Info("original logger")

	got := entries(t, &buf)
	require.Len(t, got, 1)
	assert.NotContains(t, got[0], "session")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "level(9)", Level(9).String())
}

func TestConsoleWriterOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetLevel(LevelInfo)
	logger.SetOutput(NewConsoleWriter(&buf, true))

	logger.Info("connected", "peer", "127.0.0.1:60001")

	out := buf.String()
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "connected")
	assert.Contains(t, out, "peer=127.0.0.1:60001")
}

func TestDefaultLogger(t *testing.T) {
	// Test that package-level functions work
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	t.Cleanup(func() { SetOutput(NewConsoleWriter(&bytes.Buffer{}, true)) })

	// Debug should be filtered out
	Debug("debug message")
	assert.Empty(t, buf.String())

	Warn("warn message")
	assert.Contains(t, buf.String(), `"message":"warn message"`)

	buf.Reset()

	With("component", "test").Error("error message")
	assert.Contains(t, buf.String(), `"component":"test"`)
	assert.Equal(t, LevelWarn, Default().Level())
}

func TestInit(t *testing.T) {
	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := Init(config.LogConfig{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("writes rotated file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lnprobe.log")
		cfg := config.DefaultLogConfig()
		cfg.Level = "info"
		cfg.File = path

		closer, err := Init(cfg)
		require.NoError(t, err)
		t.Cleanup(func() {
			SetLevel(LevelWarn)
			SetOutput(NewConsoleWriter(os.Stderr, true))
		})

		Info("hello file", "cycle", 1)
		require.NoError(t, closer.Close())

		assert.FileExists(t, path)
		assert.Equal(t, LevelInfo, Default().Level())
	})
}
