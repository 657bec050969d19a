// Package logging builds the logrus logger shared by the engine and CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Format represents log output formats
type Format string

const (
	JSONFormat Format = "json"
	TextFormat Format = "text"
)

// Config holds configuration options for the logger
type Config struct {
	Level  string    `mapstructure:"level"`
	Format Format    `mapstructure:"format"`
	Output io.Writer `mapstructure:"-"` // Defaults to stderr
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() Config {
	return Config{Level: "info", Format: TextFormat}
}

// Validate validates the logger configuration
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.level()); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	switch c.format() {
	case JSONFormat, TextFormat:
	default:
		return fmt.Errorf("invalid log format %q (expected json or text)", c.Format)
	}
	return nil
}

func (c Config) level() string {
	if l := strings.TrimSpace(c.Level); l != "" {
		return strings.ToLower(l)
	}
	return "info"
}

func (c Config) format() Format {
	if c.Format == "" {
		return TextFormat
	}
	return Format(strings.ToLower(string(c.Format)))
}

// New creates a logger from cfg
func New(cfg Config) (*logrus.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger configuration: %w", err)
	}

	logger := logrus.New()

	level, _ := logrus.ParseLevel(cfg.level())
	logger.SetLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	switch cfg.format() {
	case JSONFormat:
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger, nil
}

// Discard returns a logger that drops everything
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
