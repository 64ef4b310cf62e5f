// Package logging builds the logrus logger shared by the miner's packages.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrick/logrotate/rotator"
	"github.com/sirupsen/logrus"
)

const (
	defaultThresholdKB = 100 * 1000 // 100 MB logs by default.
	defaultMaxRolls    = 8          // keep 8 last logs by default.
)

// Config selects the level, format and destinations of the logger.
type Config struct {
	Level  string    // debug|info|warn|error; empty = info
	Format string    // text|json; empty = text
	File   string    // optional rotating log file
	Output io.Writer // console output; nil = os.Stderr

	ThresholdKB int64 // rotation size; 0 = 100 MB
	MaxRolls    int   // rotated files kept; 0 = 8
}

// Logger is a logrus logger that may own a log file rotator.
type Logger struct {
	*logrus.Logger
	rotator *rotator.Rotator
}

// New returns a logger configured by cfg. Close must be called to flush and
// release the log file when cfg.File is set.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	logger := &Logger{Logger: l}
	if cfg.File != "" {
		r, err := newRotator(cfg)
		if err != nil {
			return nil, err
		}
		logger.rotator = r
		out = io.MultiWriter(out, r)
	}
	l.SetOutput(out)

	return logger, nil
}

func newRotator(cfg Config) (*rotator.Rotator, error) {
	thresholdKB := cfg.ThresholdKB
	if thresholdKB <= 0 {
		thresholdKB = defaultThresholdKB
	}
	maxRolls := cfg.MaxRolls
	if maxRolls <= 0 {
		maxRolls = defaultMaxRolls
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
		return nil, fmt.Errorf("logging: create log directory: %w", err)
	}
	r, err := rotator.New(cfg.File, thresholdKB, false, maxRolls)
	if err != nil {
		return nil, fmt.Errorf("logging: create file rotator: %w", err)
	}
	return r, nil
}

// Close finalizes the log file rotator, if any.
func (l *Logger) Close() error {
	if l.rotator == nil {
		return nil
	}
	return l.rotator.Close()
}

// ParseLevel maps a level name to a logrus level. An empty name is info.
func ParseLevel(s string) (logrus.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return 0, fmt.Errorf("logging: %w", err)
	}
	return level, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
