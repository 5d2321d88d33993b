package main

import (
	"fmt"
	"os"

	"github.com/siherrmann/captioner/cmd/captioner/commands"
)

// Version information, set with -ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
