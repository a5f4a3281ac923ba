package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mellystark/visitormanagement/internal/database"
)

func newMigrateCmd(state *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed the default administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.AutoMigrateAndSeed(state.db, state.cfg.Auth.AdminSeed()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database schema is up to date")
			return nil
		},
	}
}
