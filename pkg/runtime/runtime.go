// Package runtime builds the process wide logger.
package runtime

import (
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/config"
)

// Mode picks where logs go.
type Mode int

const (
	// CLI logs to stderr.
	CLI Mode = iota
	// TUI logs to the log file, the terminal belongs to the UI.
	TUI
)

// Logger is a logger and the file it writes to, if any.
type Logger struct {
	*logrus.Logger
	closer io.Closer
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// NewLogger builds the logger described by cfg. debug forces debug level.
func NewLogger(cfg *config.Config, mode Mode, debug bool) (*Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := logrus.InfoLevel
	if cfg.Logging.Level != "" {
		lvl, err := logrus.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, errors.Wrap(err, "logging.level")
		}
		level = lvl
	}
	if debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	l := &Logger{Logger: log}
	if mode == CLI {
		log.SetOutput(os.Stderr)
		return l, nil
	}

	path, err := cfg.LogFile()
	if err != nil {
		return nil, errors.Wrap(err, "log file")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	log.SetOutput(f)
	l.closer = f
	return l, nil
}
