package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/bus-tracking/cmd/busctl/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "busctl",
		Short:         "Command line client for the campus bus-tracking API",
		Long:          "Sign in as a student or driver and open the views your role allows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewMeCmd())
	rootCmd.AddCommand(commands.NewStatusCmd())
	rootCmd.AddCommand(commands.NewOpenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
