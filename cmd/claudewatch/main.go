package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/claudewatch/internal/version"
)

func main() {
	if os.Getenv("CLAUDEWATCH_DEBUG") != "" {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	root := &cobra.Command{
		Use:   "claudewatch",
		Short: "claudewatch tracks Claude plan usage from your terminal.",
		Long: "claudewatch polls the Claude usage API on a fixed cadence and exposes\n" +
			"session, weekly and extra-usage metrics over a local socket, with a live\n" +
			"terminal dashboard on top.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newWatchCommand().RunE(cmd, args)
		},
	}

	root.AddCommand(newLoginCommand())
	root.AddCommand(newLogoutCommand())
	root.AddCommand(newRunCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newWatchCommand())
	root.AddCommand(newVersionCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the claudewatch version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.String())
		},
	}
}
