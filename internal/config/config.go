// Package config loads bankstmt settings from defaults, an optional config
// file and BANKSTMT_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/logging"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/output"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parser"
)

// EnvPrefix is prepended to every environment override (BANKSTMT_HEADER_FALLBACK=true)
const EnvPrefix = "BANKSTMT"

// Config is the complete runtime configuration
type Config struct {
	Header HeaderConfig `mapstructure:"header"`
	Rules  RulesConfig  `mapstructure:"rules"`
	Parse  ParseConfig  `mapstructure:"parse"`
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
}

// HeaderConfig controls header row localization
type HeaderConfig struct {
	ScanWindow int  `mapstructure:"scan_window"`
	Fallback   bool `mapstructure:"fallback"`
}

// RulesConfig selects the categorization rule table
type RulesConfig struct {
	File string `mapstructure:"file"` // Empty uses the embedded rules
}

// ParseConfig controls batch parsing
type ParseConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig configures result serialization
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key with its default value on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("header.scan_window", parser.DefaultScanWindow)
	v.SetDefault("header.fallback", false)
	v.SetDefault("rules.file", "")
	v.SetDefault("parse.concurrency", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", string(logging.TextFormat))
	v.SetDefault("output.format", string(output.FormatJSON))
}

// New returns a viper instance with defaults and environment overrides wired
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile (if non-empty) into v and decodes the result
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	var errs []error
	if c.Header.ScanWindow <= 0 {
		errs = append(errs, fmt.Errorf("header.scan_window must be positive, got %d", c.Header.ScanWindow))
	}
	if c.Parse.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("parse.concurrency must be positive, got %d", c.Parse.Concurrency))
	}
	if err := c.Logging().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, fmt.Errorf("output.format: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ParserOptions converts the header settings into row-loop options
func (c *Config) ParserOptions() parser.Options {
	return parser.Options{
		ScanWindow:     c.Header.ScanWindow,
		HeaderFallback: c.Header.Fallback,
	}
}

// Logging converts the log settings into a logger configuration
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:  c.Log.Level,
		Format: logging.Format(c.Log.Format),
	}
}
