package main

import (
	"os"

	"spear/cmd/spear/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
