package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/internal/router"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newGroupCommand manages groups, which end users cannot create.
func newGroupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Args:  cobra.NoArgs,
		Short: "Manage post groups",
	}
	cmd.AddCommand(newGroupCreateCommand(), newGroupListCommand())
	return cmd
}

func newGroupCreateCommand() *cobra.Command {
	var title, slug, description string

	cmd := &cobra.Command{
		Use:   "create",
		Args:  cobra.NoArgs,
		Short: "Create a group; the slug defaults to one derived from the title",
		RunE: func(cmd *cobra.Command, _ []string) error {
			group, err := models.NewGroup(title, slug, description)
			if err != nil {
				return err
			}

			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()
			if err := router.Migrate(cmd.Context(), rt.cfg, rt.db); err != nil {
				return err
			}

			if err := repositories.NewGormGroupRepository(rt.db.SQL).CreateGroup(cmd.Context(), group); err != nil {
				return fmt.Errorf("create group %q: %w", group.Slug, err)
			}
			rt.log.Info("group created", zap.Uint("id", group.ID), zap.String("slug", group.Slug))
			fmt.Fprintf(cmd.OutOrStdout(), "created group %d %s\n", group.ID, group.Slug)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "group title")
	cmd.Flags().StringVar(&slug, "slug", "", "URL slug")
	cmd.Flags().StringVar(&description, "description", "", "group description")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newGroupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Args:  cobra.NoArgs,
		Short: "List groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()

			groups, err := repositories.NewGormGroupRepository(rt.db.SQL).ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSLUG\tTITLE")
			for _, g := range groups {
				fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
			}
			return w.Flush()
		},
	}
}
