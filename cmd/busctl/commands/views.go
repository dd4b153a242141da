package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/bus-tracking/internal/domain"
	"github.com/spec-kit/bus-tracking/internal/guard"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local session and server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd)
			out := cmd.OutOrStdout()

			s := client.Session()
			if s.Empty() {
				fmt.Fprintln(out, "Session: none")
			} else {
				fmt.Fprintf(out, "Session: %s (%s)\n", s.Profile.Email, s.Profile.Role)
			}

			health, err := client.Health(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "Server:  unreachable (%v)\n", err)
				return nil
			}
			fmt.Fprintf(out, "Server:  %s\n", health)
			return nil
		},
	}
}

// NewOpenCmd creates the open command
func NewOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open a view, following the same redirects as the web client",
		Long:  "Open /, /student or /driver. Views your session does not allow redirect to login or to your own home.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd)
			out := cmd.OutOrStdout()

			requested := args[0]
			s := client.Session()
			if !s.Empty() && guard.Evaluate(s, "").Kind == guard.RedirectToLogin {
				if err := client.Logout(); err != nil {
					return fmt.Errorf("failed to clear session: %w", err)
				}
				s = client.Session()
			}
			target := guard.Resolve(requested, s)
			if target != requested {
				fmt.Fprintf(out, "Redirected: %s -> %s\n", requested, target)
			}

			var role domain.Role
			switch target {
			case guard.StudentPath:
				role = domain.RoleStudent
			case guard.DriverPath:
				role = domain.RoleDriver
			default:
				fmt.Fprintln(out, "Login view: run `busctl login` to sign in")
				return nil
			}

			home, err := client.Home(cmd.Context(), role)
			if err != nil {
				return explain(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(out, "Welcome, %s (%s view)\n", home.User.Name, home.View)
			return nil
		},
	}
}
