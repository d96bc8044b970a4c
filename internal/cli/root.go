package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bespreking/internal/config"
	appLog "bespreking/internal/log"
)

var (
	flagConfig    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	cfg *config.Config
)

// defaultConfigPath checks BESPREKING_CONFIG first, then the user config dir.
func defaultConfigPath() string {
	if p := os.Getenv("BESPREKING_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "bespreking.yaml"
	}
	return filepath.Join(dir, "bespreking", "config.yaml")
}

// NewRootCmd creates the root cobra command for the bespreking CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bespreking",
		Short: "Plan student review meetings into rooms and timeslots",
		Long: `bespreking reads a spreadsheet of (teacher, group) rows, expands groups
through the cluster mapping and greedily assigns every class to a room and
timeslot so that no teacher exceeds the overlap cap.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				flagLogLevel = "debug"
			}
			appLog.SetFormat(flagLogFormat)
			appLog.SetLevel(appLog.ParseLevel(flagLogLevel))

			var err error
			cfg, err = config.Load(flagConfig)
			if err != nil {
				appLog.Error("failed to load config", err, "config_path", flagConfig)
				return err
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			appLog.Sync()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", defaultConfigPath(), "Path to config file (or BESPREKING_CONFIG env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "console", "Log format (console, json)")

	root.AddCommand(
		newServeCmd(),
		newScheduleCmd(),
		newClustersCmd(),
	)

	return root
}
