package main

import (
	"github.com/2beens/fittracker/internal/config"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	env        string
	configPath string
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.env, o.configPath)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "fitctl",
		Short: "Operator tool for the fittracker service",
		Long: `fitctl checks a fittracker deployment before and after it goes live.

COMMANDS:

  validate   load the config and the calorie model artifacts
  predict    run the calorie model for one workout, next to the MET estimate
  migrate    create the database tables if they are missing

EXAMPLES:

  $ fitctl validate --config ./config.toml --env prod
  $ fitctl predict --age 30 --height 175 --weight 70 --duration 30 --heart-rate 120 --body-temp 37.5 --steps 5000`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.env, "env", "development", "config environment [dev | development | prod | production]")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "./config.toml", "path for the TOML config file")

	rootCmd.AddCommand(
		newValidateCmd(opts),
		newPredictCmd(opts),
		newMigrateCmd(opts),
	)

	return rootCmd
}
