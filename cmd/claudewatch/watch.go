package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/claudewatch/internal/config"
	"github.com/janekbaraniewski/claudewatch/internal/daemon"
	"github.com/janekbaraniewski/claudewatch/internal/tui"
)

func newWatchCommand() *cobra.Command {
	var socketPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the live usage dashboard",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, _ := config.Load()
			client := daemon.NewClient(socketPath)
			if err := tui.Run(client, cfg.AccountName); err != nil {
				return fmt.Errorf("dashboard: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", "", "daemon socket path (defaults to the config directory)")
	return cmd
}
