// Package cli wires the connectord commands: the remote signer daemon plus
// small inspection utilities for clusters and persisted sessions.
package cli

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/solkit/connectord/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config

	rootCmd = &cobra.Command{
		Use:   "connectord",
		Short: "Solana wallet connector daemon",
		Long: `connectord hosts a remote signer endpoint and ships the tooling
around the connector kit: cluster listings and persisted-session
inspection.

Configuration is read from $HOME/.connectord/config.yaml (or --config)
with CONNECTORD_* environment overrides.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = loaded

			level, err := log.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
			}
			log.SetLevel(level)
			return nil
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.connectord/config.yaml)")
}
