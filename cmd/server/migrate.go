package main

import (
	"github.com/anonto42/yatube/backend/internal/router"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "migrate",
		Args:    cobra.NoArgs,
		Aliases: []string{"m"},
		Short:   "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()

			if err := router.Migrate(cmd.Context(), rt.cfg, rt.db); err != nil {
				return err
			}
			rt.log.Info("migrations completed")
			return nil
		},
	}
}
