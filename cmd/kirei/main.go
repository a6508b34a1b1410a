package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kirei/internal/common"
	"github.com/ternarybob/kirei/internal/services/unified"
)

// cli holds what every subcommand needs once configuration is loaded
type cli struct {
	configPath string
	logLevel   string

	config  *common.Config
	logger  arbor.ILogger
	unified *unified.Service
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:               "kirei",
		Short:             "One client for GitHub, Linear, Trello and Jira issues",
		Long:              `Kirei lists and creates issues, projects and tasks across GitHub, Linear, Trello and Jira through one set of commands.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Configuration file path (default ~/.kirei/config.toml, or KIREI_CONFIG)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level override (trace, debug, info, warn, error)")

	root.AddCommand(
		newUnifiedCmd(c),
		newAuthCmd(c),
		newConfigCmd(c),
		newVersionCmd(),
	)

	return root
}

// setup runs before every command:
// 1. Resolve and load config (defaults -> file -> env)
// 2. Apply CLI overrides
// 3. Initialize logger
// 4. Build the unified service
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	path := c.configPath
	if path == "" {
		defaultPath, err := common.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		return err
	}

	common.ApplyFlagOverrides(config, c.logLevel)

	c.configPath = path
	c.config = config
	c.logger = common.InitLogger(config)
	c.unified = unified.NewService(config, path, c.logger)

	c.logger.Debug().
		Str("config_path", path).
		Str("default_provider", string(config.DefaultProvider)).
		Str("log_level", config.Logging.Level).
		Msg("Configuration loaded")

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
