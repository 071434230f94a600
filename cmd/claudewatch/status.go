package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/claudewatch/internal/config"
	"github.com/janekbaraniewski/claudewatch/internal/core"
	"github.com/janekbaraniewski/claudewatch/internal/daemon"
	"github.com/janekbaraniewski/claudewatch/internal/sensor"
)

var (
	statusOKStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1"))
	statusAuthStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAB387"))
	statusErrStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8"))
)

func newStatusCommand() *cobra.Command {
	var socketPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print a one-shot usage report from the running watcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client := daemon.NewClient(socketPath)

			health, err := client.Health(ctx)
			if err != nil {
				return fmt.Errorf("watcher not reachable (is `claudewatch run` running?): %w", err)
			}

			model, err := client.ReadModel(ctx)
			if err != nil {
				return fmt.Errorf("fetch usage state: %w", err)
			}

			cfg, _ := config.Load()
			printStatus(cfg, health, model)
			return nil
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", "", "daemon socket path (defaults to the config directory)")
	return cmd
}

func printStatus(cfg config.Config, health daemon.HealthResponse, model daemon.ReadModel) {
	outcome := model.Outcome

	var rendered string
	switch outcome.Status {
	case core.StatusOK:
		rendered = statusOKStyle.Render("OK")
	case core.StatusAuth:
		rendered = statusAuthStyle.Render("AUTH REQUIRED")
	default:
		rendered = statusErrStyle.Render(string(outcome.Status))
	}

	fmt.Printf("claudewatch %s\n\n", health.DaemonVersion)
	if cfg.AccountName != "" {
		account := cfg.AccountName
		if cfg.SubscriptionLevel != "" {
			account += " (" + cfg.SubscriptionLevel + ")"
		}
		fmt.Printf("Account:   %s\n", account)
	}
	fmt.Printf("Status:    %s\n", rendered)
	if outcome.Message != "" {
		fmt.Printf("Message:   %s\n", outcome.Message)
	}
	if !outcome.Timestamp.IsZero() {
		fmt.Printf("Polled:    %s\n", outcome.Timestamp.Local().Format(time.RFC1123))
	}
	fmt.Printf("Interval:  %ds\n\n", model.IntervalSeconds)

	metrics := outcome.Metrics
	if outcome.Failed() && len(model.LastGood) > 0 {
		fmt.Println("Last good metrics:")
		metrics = model.LastGood
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, v := range sensor.Resolve(metrics) {
		fmt.Fprintf(w, "  %s\t%s\n", v.Definition.Name, v.Display())
	}
	_ = w.Flush()
}
