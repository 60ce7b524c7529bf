package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdrop/taskdrop/internal/config"
	"github.com/taskdrop/taskdrop/internal/logging"
	"github.com/taskdrop/taskdrop/internal/telemetry"

	// Tracker plugins register themselves on import.
	_ "github.com/taskdrop/taskdrop/internal/tracker/linear"
)

// cliState holds what the persistent pre-run sets up for subcommands.
type cliState struct {
	configPath string
	verbose    bool
	logFormat  string

	logger *logging.Logger
}

func (s *cliState) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger.Logger
}

// newRootCmd builds the command tree. The returned state must be torn down
// with run, which does so whether or not the command succeeds.
func newRootCmd() (*cobra.Command, *cliState) {
	state := &cliState{}

	rootCmd := &cobra.Command{
		Use:   "taskdrop",
		Short: "taskdrop - turn pasted task lists into tracker issues",
		Long: `taskdrop structures free-text task lists with an LLM, previews them in Slack,
and creates the approved batch in your issue tracker with one-click undo.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.setup(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&state.configPath, "config", "", "Config file (default: ./taskdrop.yaml or ~/.config/taskdrop/taskdrop.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&state.logFormat, "log-format", "", "Log format: text or json (default from log.format)")

	rootCmd.AddCommand(
		newServeCmd(state),
		newStructureCmd(state),
		newStatesCmd(state),
		newEventsCmd(state),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd, state
}

// run executes the command tree and then flushes telemetry and closes the
// log file, including when the command fails.
func run(ctx context.Context, rootCmd *cobra.Command, state *cliState) error {
	defer state.teardown()
	return rootCmd.ExecuteContext(ctx)
}

func (s *cliState) setup(ctx context.Context) error {
	if err := config.InitializeWithFile(s.configPath); err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	level := config.GetString(config.KeyLogLevel)
	if s.verbose {
		level = "debug"
	}
	format := config.GetString(config.KeyLogFormat)
	if s.logFormat != "" {
		format = s.logFormat
	}
	logger, err := logging.Setup(logging.Options{
		Level:  level,
		Format: format,
		File:   config.GetString(config.KeyLogFile),
	})
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	s.logger = logger

	if ctx == nil {
		ctx = context.Background()
	}
	if err := telemetry.Init(ctx, telemetry.Options{
		Enabled:     config.GetBool(config.KeyOTelEnabled),
		Stdout:      config.GetBool(config.KeyOTelStdout),
		Endpoint:    config.GetString(config.KeyOTelEndpoint),
		ServiceName: config.GetString(config.KeyOTelServiceName),
		Version:     Version,
	}); err != nil {
		// Telemetry never blocks the CLI.
		logger.Warn("telemetry init failed", "error", err)
	}
	if used := config.ConfigFileUsed(); used != "" {
		logger.Debug("loaded config", "file", used)
	}
	return nil
}

func (s *cliState) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := telemetry.Shutdown(ctx); err != nil {
		s.log().Warn("telemetry shutdown failed", "error", err)
	}
	if s.logger != nil {
		_ = s.logger.Close()
		s.logger = nil
	}
}

func main() {
	rootCmd, state := newRootCmd()
	if err := run(context.Background(), rootCmd, state); err != nil {
		os.Exit(1)
	}
}
