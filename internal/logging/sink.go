package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/thruflo/lnprobe/internal/config"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init configures the default logger from cfg. Console output always goes to
// stderr; when cfg.File is set, entries are also written as JSON to a rotated
// file. The returned closer releases the file and must be called on exit.
func Init(cfg config.LogConfig) (io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	console := NewConsoleWriter(os.Stderr, !isTerminal(os.Stderr))

	var (
		out    io.Writer = console
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		file := newRotatingFile(cfg)
		out = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	defaultLogger.SetOutput(out)
	defaultLogger.SetLevel(level)

	Debug("logger initialized", "level", level.String(), "file", cfg.File)
	return closer, nil
}

func newRotatingFile(cfg config.LogConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.FileMaxSizeMB,
		MaxBackups: cfg.FileMaxBackups,
		MaxAge:     cfg.FileMaxAgeDays,
		Compress:   false,
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
