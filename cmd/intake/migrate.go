package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/intake-api/internal/model"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL schema and seed the physician directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, _ := cmd.Flags().GetBool("seed")

			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if a.postgres == nil {
				return fmt.Errorf("migrate requires storage.driver %q, got %q", "postgres", a.cfg.Storage.Driver)
			}
			if err := a.postgres.Migrate(cmd.Context()); err != nil {
				return err
			}
			a.log.Info("schema applied")

			if seed {
				if err := a.postgres.SeedPhysicians(cmd.Context(), model.DefaultPhysicians); err != nil {
					return err
				}
				a.log.Info("physicians seeded", "count", len(model.DefaultPhysicians))
			}
			return nil
		},
	}
	cmd.Flags().Bool("seed", true, "insert the built-in physician directory")
	return cmd
}
