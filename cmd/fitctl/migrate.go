package main

import (
	"os"

	"github.com/2beens/fittracker/internal/db"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the fittracker tables if they do not exist",
		Long:  "Connects with the config's postgres settings. The password is read from FIT_POSTGRES_PASS.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
				DBHost:     cfg.PostgresHost,
				DBPort:     cfg.PostgresPort,
				DBName:     cfg.PostgresDBName,
				DBUser:     cfg.PostgresUser,
				DBPassword: os.Getenv("FIT_POSTGRES_PASS"),
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.EnsureSchema(ctx, pool); err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "schema ok (%s@%s/%s)\n", cfg.PostgresUser, cfg.PostgresHost, cfg.PostgresDBName)
			return nil
		},
	}
}
