// Package kvm wires the master, client, and WebSocket bridge roles into a
// single cobra CLI, mirroring the teacher's cmd/helix package: one root
// command, one subcommand file per runnable role, each owning its own flag
// set and wiring its own components.
package kvm

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() { //nolint:gochecknoinits
	NewRootCmd()
}

// NewRootCmd builds the root command and attaches every role subcommand.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kvm",
		Short: "kvm-over-ip",
		Long:  "A software KVM-over-IP switch: share one keyboard and mouse across machines over a LAN.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(cmd)
		},
	}

	rootCmd.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json-logs", false, "emit JSON logs instead of the console writer")

	rootCmd.AddCommand(newMasterCmd())
	rootCmd.AddCommand(newClientCmd())
	rootCmd.AddCommand(newBridgeCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func configureLogging(cmd *cobra.Command) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	jsonLogs, _ := cmd.Flags().GetBool("json-logs")
	if !jsonLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// Execute runs the root command against os.Args, exiting the process with
// status 1 on error.
func Execute() {
	rootCmd := NewRootCmd()
	rootCmd.SetContext(context.Background())
	rootCmd.SetOutput(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("kvm: command failed")
	}
}
