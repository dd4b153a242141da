package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/bus-tracking/internal/guard"
	"github.com/spec-kit/bus-tracking/internal/validation"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var in validation.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a student account",
		Long:  "Create a student account and sign in. Driver accounts are issued by an administrator.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd)
			res, err := client.Register(cmd.Context(), in)
			if err != nil {
				return explain(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s <%s> as %s\n", res.User.Name, res.User.Email, res.User.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "Home: %s\n", guard.HomePath(res.User.Role))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (at least 6 characters)")
	cmd.Flags().StringVar(&in.ConfirmPassword, "confirm-password", "", "Password again")

	return cmd
}

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var in validation.LoginInput

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a student or driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd)
			res, err := client.Login(cmd.Context(), in)
			if err != nil {
				return explain(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", res.User.Name, res.User.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "Home: %s\n", guard.HomePath(res.User.Role))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password")

	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient(cmd).Logout(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

// NewMeCmd creates the me command
func NewMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user as the server sees it",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := newClient(cmd).Me(cmd.Context())
			if err != nil {
				return explain(cmd.ErrOrStderr(), err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:    %s\n", profile.ID)
			fmt.Fprintf(out, "Name:  %s\n", profile.Name)
			fmt.Fprintf(out, "Email: %s\n", profile.Email)
			fmt.Fprintf(out, "Role:  %s\n", profile.Role)
			return nil
		},
	}
}
