package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternarybob/kirei/internal/models"
	"github.com/ternarybob/kirei/internal/services/auth"
)

func newAuthCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider credentials",
	}
	cmd.AddCommand(newAuthLoginCmd(c), newAuthSetTokenCmd(c), newAuthStatusCmd(c))
	return cmd
}

func newAuthLoginCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "login <provider>",
		Short: "Authorize through the browser (GitHub only)",
		Long: `Starts a local callback listener, prints the authorization URL and waits
for the browser redirect. The resulting token is saved to the config file.
Requires github.client_id and github.client_secret.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.ProviderGitHub)},
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := models.ParseProvider(args[0])
			if err != nil {
				return err
			}
			if provider != models.ProviderGitHub {
				return fmt.Errorf("browser login is only available for GitHub; use `kirei auth set-token %s <token>`", provider)
			}

			out := cmd.OutOrStdout()
			svc := auth.NewService(c.config, c.unified, c.logger)
			err = svc.LoginGitHub(cmd.Context(), func(authURL string) {
				fmt.Fprintln(out, "Open this URL in your browser to authorize Kirei:")
				fmt.Fprintf(out, "\n  %s\n\n", authURL)
				fmt.Fprintf(out, "Waiting up to %s for the redirect...\n", c.config.OAuthTimeout())
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "GitHub token saved to %s\n", c.configPath)
			return nil
		},
	}
}

func newAuthSetTokenCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set-token <provider> [token]",
		Short: "Store a token for a provider",
		Long:  `Stores the token in the config file. Without a token argument the first line of stdin is used.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := models.ParseProvider(args[0])
			if err != nil {
				return err
			}

			var token string
			if len(args) == 2 {
				token = args[1]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("no token given on stdin: %w", err)
				}
				token = strings.TrimSpace(line)
			}

			if err := c.unified.SetCredential(provider, token); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s token saved to %s\n", provider.DisplayName(), c.configPath)
			return nil
		},
	}
}

func newAuthStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where each provider's token comes from",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, provider := range models.AllProviders() {
				switch c.unified.CredentialSource(provider) {
				case "env":
					fmt.Fprintf(out, "%-7s %s\n", provider.DisplayName(), provider.EnvVar())
				case "config":
					fmt.Fprintf(out, "%-7s %s\n", provider.DisplayName(), c.configPath)
				default:
					fmt.Fprintf(out, "%-7s not configured\n", provider.DisplayName())
				}
			}
		},
	}
}
