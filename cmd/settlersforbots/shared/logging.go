package shared

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger configures a charmbracelet logger at the named level
// (debug, info, warn or error) writing to w.
func SetupLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}), nil
}

// SetupStructuredLogger configures a logger for JSON output
func SetupStructuredLogger(w io.Writer, level string) (*log.Logger, error) {
	logger, err := SetupLogger(w, level)
	if err != nil {
		return nil, err
	}
	logger.SetFormatter(log.JSONFormatter)
	logger.SetTimeFormat(time.RFC3339Nano)
	return logger, nil
}

// OpenLogFile opens path for appending, or returns stderr when path is
// empty. The returned func closes the file.
func OpenLogFile(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stderr, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f.Close, nil
}
