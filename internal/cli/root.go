package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mobbind-dev/mobbind/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the mobbind command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mobbind",
		Short: "mobbind - search the Mobbin catalogue from your terminal",
		Long: `mobbind CLI - sign in through a mobbind server and search the design-reference catalogue.

Run 'mobbind use <server-url>' once, then 'mobbind login' and 'mobbind search <query>'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mobbind version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewUseCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewSearchCmd())
	rootCmd.AddCommand(commands.NewLatestCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
