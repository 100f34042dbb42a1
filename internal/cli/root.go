// Package cli wires the towerdesk commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/minhdn/towerdesk/internal/config"
	"github.com/minhdn/towerdesk/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	log *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "towerdesk",
		Short: "Towerdesk — conversational assistant for building management",
		Long: "Towerdesk answers residents' questions about service fees, amenities and\n" +
			"apartments, scoped to the building their credential binds them to.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSeedCmd())

	return cmd
}

// loadConfig reads the configured file, honoring the --log-level override
// after the config's own logging level.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	if logLevel == "" && cfg.Logging.Level != "" {
		log = logging.New(nil, cfg.Logging.Level)
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
