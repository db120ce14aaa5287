package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SetupConfig carries the logging options collected from flags and config.
type SetupConfig struct {
	Level  string
	JSON   bool
	Source bool
	File   string
}

// SetupLogger initializes the default logger. When File is set, log lines are
// written to both stderr and the file. The returned closer releases the file.
func SetupLogger(cfg SetupConfig) (io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closer = f
	}
	Init(&Config{
		Level:      LogLevel(cfg.Level),
		Output:     out,
		JSON:       cfg.JSON,
		AddSource:  cfg.Source,
		TimeFormat: "15:04:05",
	})
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
