// Package commands implements the CLI commands for the lucky-dog
// worker.
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
	Use:   "luckyworker",
	Short: "lucky-dog worker - CPU-bound passphrase verification",
	Long: `luckyworker leases candidate batches from a lucky-dog coordinator,
fans them out over the local CPU cores through the wallet verification
pipeline and reports results. It terminates once the password is found
by any worker.`,
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
	rootCmd.AddCommand(versionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
