package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultCommand        = "ln0=0"
	DefaultInterval       = time.Second
	DefaultLogLevel       = "warn"
	DefaultFileMaxSizeMB  = 10
	DefaultFileMaxBackups = 3
	DefaultFileMaxAgeDays = 28
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// DefaultPoll returns poll settings matching the border node's expectations:
// the fixed ln0=0 query once per second, forever.
func DefaultPoll() Poll {
	return Poll{
		Command:  DefaultCommand,
		Interval: DefaultInterval,
	}
}

// DefaultLogConfig returns log settings with sensible default values.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:          DefaultLogLevel,
		FileMaxSizeMB:  DefaultFileMaxSizeMB,
		FileMaxBackups: DefaultFileMaxBackups,
		FileMaxAgeDays: DefaultFileMaxAgeDays,
	}
}

// DefaultConfig returns a Config with sensible default values. The target is
// left empty; it must come from flags or a config file.
func DefaultConfig() Config {
	return Config{
		Poll: DefaultPoll(),
		Log:  DefaultLogConfig(),
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// LoadConfig reads and parses the YAML config file at path.
// An empty path returns the default config. A path that does not exist is an
// error, since it was asked for explicitly.
// Applies defaults for any missing fields.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateConfig checks the poll and log settings. The target is checked
// separately by ValidateTarget once command-line overrides are applied.
func ValidateConfig(cfg *Config) error {
	if err := ValidatePoll(&cfg.Poll); err != nil {
		return err
	}
	return ValidateLogConfig(&cfg.Log)
}

// ValidatePoll checks that poll settings are usable.
func ValidatePoll(p *Poll) error {
	if p.Command == "" {
		return ValidationError{Field: "poll.command", Message: "required field is empty"}
	}
	if p.Interval < 0 {
		return ValidationError{Field: "poll.interval", Message: "must not be negative"}
	}
	if p.MaxCycles < 0 {
		return ValidationError{Field: "poll.max_cycles", Message: "must not be negative"}
	}
	if p.DialTimeout < 0 {
		return ValidationError{Field: "poll.dial_timeout", Message: "must not be negative"}
	}
	return nil
}

// ValidateLogConfig checks that log settings are usable.
func ValidateLogConfig(l *LogConfig) error {
	if !validLogLevels[strings.ToLower(l.Level)] {
		return ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", l.Level)}
	}
	if l.File != "" && l.FileMaxSizeMB <= 0 {
		return ValidationError{Field: "log.file_max_size_mb", Message: "must be positive"}
	}
	return nil
}

// ValidateTarget checks that a host and port were supplied. The values are
// otherwise passed to the dialer untouched.
func ValidateTarget(t *Target) error {
	if t.Host == "" {
		return ValidationError{Field: "target.host", Message: "required field is empty"}
	}
	if t.Port == 0 {
		return ValidationError{Field: "target.port", Message: "required field is empty"}
	}
	return nil
}
