// Package commands implements the CLI commands for the lucky-dog
// coordinator daemon.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "luckyd",
	Short: "lucky-dog coordinator - distributed wallet passphrase search",
	Long: `luckyd is the coordinator of the lucky-dog distributed brute-force
search engine. It owns the persistent pool of candidate passphrases,
leases batches to workers over HTTP and latches a durable "found"
state when any worker validates a candidate.

Use "luckyd [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: env vars and built-in defaults)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
