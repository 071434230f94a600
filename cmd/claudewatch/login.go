package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/claudewatch/internal/auth"
	"github.com/janekbaraniewski/claudewatch/internal/config"
)

func newLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize claudewatch against your Claude account",
		Long: "Starts a PKCE authorization flow: opens an authorization URL for you to\n" +
			"visit, then exchanges the pasted code for tokens stored under your config\n" +
			"directory.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			verifier, challenge, err := auth.GeneratePKCE()
			if err != nil {
				return fmt.Errorf("generate PKCE pair: %w", err)
			}
			state, err := auth.NewStateToken()
			if err != nil {
				return fmt.Errorf("generate state token: %w", err)
			}

			client := auth.NewClient(nil)
			fmt.Println("Open this URL in your browser and authorize claudewatch:")
			fmt.Println()
			fmt.Println("  " + client.AuthorizeURL(challenge, state))
			fmt.Println()
			fmt.Print("Paste the code shown after authorizing: ")

			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("no authorization code provided")
			}

			creds, err := client.ExchangeCode(ctx, code, verifier, state)
			if err != nil {
				return fmt.Errorf("exchange authorization code: %w", err)
			}

			store := config.CredentialStore{}
			if err := store.Save(creds); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}

			name, level := client.FetchProfile(ctx, creds.AccessToken)
			if err := config.SaveAccount(name, level); err != nil {
				return fmt.Errorf("save account details: %w", err)
			}

			if name != "" {
				fmt.Printf("Logged in as %s", name)
				if level != "" {
					fmt.Printf(" (%s)", level)
				}
				fmt.Println(".")
			} else {
				fmt.Println("Logged in.")
			}
			fmt.Println("Run `claudewatch run` to start polling usage.")
			return nil
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored Claude credentials",
		RunE: func(_ *cobra.Command, _ []string) error {
			store := config.CredentialStore{}
			if err := store.Delete(); err != nil {
				return fmt.Errorf("remove credentials: %w", err)
			}
			fmt.Println("Credentials removed.")
			return nil
		},
	}
}
