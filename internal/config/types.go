package config

import "time"

// Target identifies the peer to poll.
type Target struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Poll controls the request/response loop.
type Poll struct {
	Command     string        `yaml:"command"`
	Interval    time.Duration `yaml:"interval"`
	MaxCycles   int           `yaml:"max_cycles"`   // 0 means unlimited
	DialTimeout time.Duration `yaml:"dial_timeout"` // 0 means no timeout
}

// LogConfig configures log output.
type LogConfig struct {
	Level          string `yaml:"level"`
	File           string `yaml:"file,omitempty"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// Config represents an lnprobe config file.
type Config struct {
	Target Target    `yaml:"target"`
	Poll   Poll      `yaml:"poll"`
	Log    LogConfig `yaml:"log"`
}
