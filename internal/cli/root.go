package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thruflo/lnprobe/internal/logging"
	"github.com/thruflo/lnprobe/internal/probe"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	rootIP          string
	rootPort        int
	rootConfig      string
	rootCommand     string
	rootInterval    time.Duration
	rootCount       int
	rootDialTimeout time.Duration
	rootLogLevel    string
	rootLogFile     string
)

var rootCmd = &cobra.Command{
	Use:   "lnprobe --ip <host> --port <port>",
	Short: "Poll a border node for its packet counter over TCP",
	Long: `lnprobe opens one TCP connection to a border node, sends the ln0=0
query, prints the newline-terminated reply and repeats every second.

Integer replies are printed as-is. Anything else is printed after a
"Non numerical log : " label. The connection is never re-established:
if it fails, lnprobe exits with an error.

Example:
  lnprobe --ip 192.168.1.20 --port 60001
  lnprobe --ip 192.168.1.20 --port 60001 --interval 5s --count 10
  lnprobe --config lnprobe.yaml --log-level info`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("lnprobe version {{.Version}}\n")
	bindFlags(rootCmd.Flags())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}

	closer, err := logging.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer closer.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := append(probe.FromConfig(cfg.Poll),
		probe.WithOutput(cmd.OutOrStdout()),
		probe.WithLogger(logging.Default()),
	)
	client, err := probe.Dial(ctx, cfg.Target.Host, cfg.Target.Port, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return stopped(cmd)
		}
		logging.Debug("connection failed", "error", err)
		return err
	}
	defer client.Close()

	err = client.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return stopped(cmd)
	}
	return err
}

// stopped reports a user interrupt, which is not an error.
func stopped(cmd *cobra.Command) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "\nStopped.\n")
	return nil
}
