package main

import (
	"os"

	"github.com/luchenqun/lucky-dog/cmd/luckyworker/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
