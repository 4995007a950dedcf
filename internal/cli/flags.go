package cli

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/thruflo/lnprobe/internal/config"
)

// bindFlags registers the root command flags on fs.
func bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&rootIP, "ip", "", "Host or address of the border node")
	fs.IntVar(&rootPort, "port", 0, "TCP port of the border node")
	fs.StringVarP(&rootConfig, "config", "c", "", "Path to a YAML config file")
	fs.StringVar(&rootCommand, "command", config.DefaultCommand, "Query sent at the start of every cycle")
	fs.DurationVar(&rootInterval, "interval", config.DefaultInterval, "Pause between cycles")
	fs.IntVarP(&rootCount, "count", "n", 0, "Stop after this many replies (0 = run forever)")
	fs.DurationVar(&rootDialTimeout, "dial-timeout", 0, "Connection timeout (0 = none)")
	fs.StringVar(&rootLogLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&rootLogFile, "log-file", "", "Also write JSON logs to this rotated file")
}

// resolveConfig loads the config file named by --config, then applies every
// flag that was set explicitly on the command line.
func resolveConfig(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadConfig(rootConfig)
	if err != nil {
		return nil, err
	}

	applyFlagOverrides(fs, cfg)

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := config.ValidateTarget(&cfg.Target); err != nil {
		return nil, fmt.Errorf("%w (set --ip and --port or a config file)", err)
	}
	return cfg, nil
}

// applyFlagOverrides copies every flag marked Changed into cfg.
func applyFlagOverrides(fs *pflag.FlagSet, cfg *config.Config) {
	fs.VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		switch f.Name {
		case "ip":
			cfg.Target.Host = rootIP
		case "port":
			cfg.Target.Port = rootPort
		case "command":
			cfg.Poll.Command = rootCommand
		case "interval":
			cfg.Poll.Interval = rootInterval
		case "count":
			cfg.Poll.MaxCycles = rootCount
		case "dial-timeout":
			cfg.Poll.DialTimeout = rootDialTimeout
		case "log-level":
			cfg.Log.Level = rootLogLevel
		case "log-file":
			cfg.Log.File = rootLogFile
		}
	})
}
