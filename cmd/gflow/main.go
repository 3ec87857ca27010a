// Package main implements the gflow CLI.
// It parses Java sources, prints control flow graphs and dataflow facts,
// and runs the dataflow optimizer.
package main

import (
	"os"

	"github.com/l3aro/go-gflow/cmd/gflow/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	commands.RootCmd.Version = version
	if buildTime != "" {
		commands.RootCmd.Version = version + " (" + buildTime + ")"
	}
	commands.RootCmd.SetVersionTemplate(`gflow version {{.Version}}
`)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
