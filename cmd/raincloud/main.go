// Raincloud is a command-line client for the RainCloud / wifiaquatimer
// irrigation portal.
//
// It logs in with the account credentials, discovers the controllers,
// faucets and zones behind the account, and reads or changes zone
// settings the same way the portal's web page does.
//
// Usage:
//
//	raincloud [command] [flags]
//
// Credentials come from RAINCLOUD_USERNAME and RAINCLOUD_PASSWORD (a local
// .env file is read too). A missing password is prompted for.
// See 'raincloud --help' for available commands.
package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/muurk/raincloud/internal/logging"
	"github.com/muurk/raincloud/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "raincloud",
	Short: "RainCloud irrigation portal client",
	Long: `A command-line client for the RainCloud / wifiaquatimer irrigation portal.

Shows the controllers, faucets and zones registered to an account and
changes zone settings: manual watering, rain delay, the automatic
program and names.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		switch resolveFormat(nil) {
		case "json", "yaml":
			return printStructured(cmd.OutOrStdout(), info)
		default:
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return nil
		}
	},
}
