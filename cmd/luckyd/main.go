package main

import (
	"os"

	"github.com/luchenqun/lucky-dog/cmd/luckyd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
