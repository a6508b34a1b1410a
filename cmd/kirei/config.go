package main

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/ternarybob/kirei/internal/models"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), c.configPath)
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the resolved configuration with secrets redacted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				shown := *c.config
				shown.Tokens = make(map[models.ProviderID]string, len(c.config.Tokens))
				for provider, token := range c.config.Tokens {
					shown.Tokens[provider] = redact(token)
				}
				shown.GitHub.ClientSecret = redact(shown.GitHub.ClientSecret)
				shown.Trello.APIKey = redact(shown.Trello.APIKey)

				data, err := toml.Marshal(&shown)
				if err != nil {
					return fmt.Errorf("failed to render config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", c.configPath, data)
				return nil
			},
		},
	)
	return cmd
}
