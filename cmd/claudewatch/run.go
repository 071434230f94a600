package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/claudewatch/internal/auth"
	"github.com/janekbaraniewski/claudewatch/internal/claude"
	"github.com/janekbaraniewski/claudewatch/internal/config"
	"github.com/janekbaraniewski/claudewatch/internal/daemon"
	"github.com/janekbaraniewski/claudewatch/internal/scheduler"
)

func newRunCommand() *cobra.Command {
	var (
		intervalSeconds int
		socketPath      string
		verbose         bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the usage watcher daemon",
		Long: "Polls the Claude usage API on the configured cadence, refreshes the\n" +
			"access token as needed, and serves the latest metrics over a local\n" +
			"unix socket for `claudewatch status` and `claudewatch watch`.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				log.SetOutput(os.Stderr)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("interval") {
				intervalSeconds = cfg.UpdateIntervalSeconds
			}
			if err := config.ValidateInterval(intervalSeconds); err != nil {
				return err
			}

			httpClient := &http.Client{Timeout: 15 * time.Second}
			store := config.CredentialStore{}

			creds, err := store.Load()
			if err != nil {
				return fmt.Errorf("load credentials: %w", err)
			}
			if creds.Empty() {
				return fmt.Errorf("no stored credentials, run `claudewatch login` first")
			}

			sched, err := scheduler.New(
				auth.NewClient(httpClient),
				claude.NewClient(httpClient),
				store,
				time.Duration(intervalSeconds)*time.Second,
			)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := sched.Start(ctx); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer sched.Stop()

			server := daemon.NewServer(daemon.Config{SocketPath: socketPath, Verbose: verbose}, sched)
			if err := server.Start(ctx); err != nil {
				return err
			}

			// Config edits take effect without a restart: interval changes feed
			// straight into the running ticker.
			go func() {
				err := config.Watch(ctx, config.ConfigPath(), func(updated config.Config) {
					d := time.Duration(updated.UpdateIntervalSeconds) * time.Second
					if err := sched.SetInterval(d); err != nil {
						log.Printf("ignoring config update: %v", err)
						return
					}
					log.Printf("poll interval updated to %s", d)
				})
				if err != nil && ctx.Err() == nil {
					log.Printf("config watch stopped: %v", err)
				}
			}()

			fmt.Printf("Watching Claude usage every %ds (socket %s). Ctrl-C to stop.\n",
				intervalSeconds, server.SocketPath())

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().IntVar(&intervalSeconds, "interval", config.DefaultUpdateIntervalSeconds, "poll interval in seconds")
	cmd.Flags().StringVar(&socketPath, "socket", "", "daemon socket path (defaults to the config directory)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log poll activity to stderr")
	return cmd
}
