package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"userbot/internal/core/usage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Populated by ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "userbot",
		Short:         "Chat bot dispatching commands, hooks and shortcuts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "grammar" || cmd.Name() == "version" {
				return nil
			}
			return loadConfig(configFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context())
		},
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./config.toml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Connect to Telegram and handle messages until interrupted",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runBot(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Build every command, hook and shortcut and report registration errors",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := validate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all modules registered successfully")
				return nil
			},
		},
		&cobra.Command{
			Use:   "grammar <usage>",
			Short: "Print the Lark grammar generated from a usage string",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				u, err := usage.Parse(args[0])
				if err != nil {
					return err
				}
				grammar, err := usage.Grammar(u)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), grammar)
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "userbot %s (%s)\n", version, commit)
			},
		},
	)

	return root
}

func runBot(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().Str("version", version).Msg("starting userbot...")

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("userbot stopped")
		return err
	}

	log.Info().Msg("userbot stopped")
	return nil
}
