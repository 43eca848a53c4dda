package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"polcoord/internal/config"
	"polcoord/internal/logging"
)

var (
	port       string
	configPath string
	verbose    bool
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "polcoord",
		Short:        "Political coordinates quiz: respondent records, reports and the quiz server",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", "", "port to listen on (default: $PORT, server.port, then 8080)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewPublishCmd(&configPath))
	cmd.AddCommand(NewRecordsCmd(&configPath))
	cmd.AddCommand(NewReportCmd(&configPath))
	return cmd
}

// setup loads and validates the config and builds the logger.
func setup(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	log, err := loggerFor(cfg)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func loggerFor(cfg config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log, verbose)
}
