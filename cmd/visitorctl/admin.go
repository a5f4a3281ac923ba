package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mellystark/visitormanagement/internal/services"
)

func newAdminCmd(state *cli) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	var input services.CreateAdminInput
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := state.svc.Admins.CreateAdmin(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created administrator %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&input.Username, "username", "", "login name")
	createCmd.Flags().StringVar(&input.Email, "email", "", "email address")
	createCmd.Flags().StringVar(&input.Password, "password", "", "initial password")
	createCmd.Flags().StringVar(&input.FullName, "full-name", "", "display name")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("password")

	var username, password string
	resetCmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.svc.Admins.ResetPassword(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", username)
			return nil
		},
	}
	resetCmd.Flags().StringVar(&username, "username", "", "login name")
	resetCmd.Flags().StringVar(&password, "password", "", "new password")
	_ = resetCmd.MarkFlagRequired("username")
	_ = resetCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(createCmd, resetCmd)
	return adminCmd
}
