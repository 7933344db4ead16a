// Package logging builds the leveled charmbracelet/log logger shared by the
// store and every surface.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Options select level, format and destination.
type Options struct {
	Level  string
	Format string
	// File, when set, receives all output. Otherwise Fallback is used.
	File     string
	Fallback io.Writer
}

// Logger wraps the logger with the file it may own.
type Logger struct {
	*log.Logger
	file *os.File
}

// New creates a logger. Close must be called to release a log file.
func New(opts Options) (*Logger, error) {
	level, err := log.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	formatter, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	var (
		w    = opts.Fallback
		file *os.File
	)
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		file, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = file
	}
	if w == nil {
		w = io.Discard
	}

	l := log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: file != nil || formatter != log.TextFormatter,
		Prefix:          "tada",
	})
	return &Logger{Logger: l, file: file}, nil
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

func parseFormat(s string) (log.Formatter, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	}
	return log.TextFormatter, fmt.Errorf("log format: unknown %q", s)
}
