package main

import (
	"fmt"

	"github.com/2beens/fittracker/internal/estimator"
	"github.com/2beens/fittracker/internal/users"
	"github.com/2beens/fittracker/pkg"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config and the model artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ok := color.New(color.FgGreen)
			faint := color.New(color.Faint)

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ok.Fprintf(out, "config ok ")
			faint.Fprintf(out, "(%s, %s)\n", opts.configPath, opts.env)

			if _, err := users.NewPasswordHasher(cfg.PasswordHashScheme); err != nil {
				return err
			}

			for _, path := range []string{cfg.ModelPath, cfg.ScalerPath} {
				exists, err := pkg.PathExists(path, false)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("artifact not found: %s", path)
				}
			}

			model, err := estimator.LoadModel(cfg.ModelPath, cfg.ScalerPath)
			if err != nil {
				return err
			}
			ok.Fprintf(out, "model ok ")
			faint.Fprintf(out, "(%s regressor)\n", model.Kind())

			fmt.Fprintf(out, "sessions expire after %s, cleanup every %s\n", cfg.SessionTTL, cfg.SessionCleanupInterval)
			return nil
		},
	}
}
