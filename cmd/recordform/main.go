package main

import (
	"os"

	"github.com/rero/recordform/cmd/recordform/commands"
)

// Version is the current version of recordform
const Version = "v0.1.0"

func main() {
	commands.SetVersion(Version)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
