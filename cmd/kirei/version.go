package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/kirei/internal/common"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// No config needed to report the version
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			common.PrintBanner(common.GetVersion())
			fmt.Fprintf(cmd.OutOrStdout(), "Kirei version %s\n", common.GetFullVersion())
		},
	}
}
