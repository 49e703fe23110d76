package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luchenqun/lucky-dog/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "lucky.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("config file %q already exists (use --force to overwrite)", path)
		}

		sample, err := config.Sample()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, sample, 0644); err != nil {
			return fmt.Errorf("failed to write config file %q: %w", path, err)
		}

		cmd.Printf("Wrote sample configuration to %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}
