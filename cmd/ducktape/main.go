package main

import (
	"os"

	"ducktape/internal/cli"
	"ducktape/internal/ui"
)

var version = "0.1.0-dev"

func main() {
	root := cli.NewRootCommand(version)
	if err := root.Execute(); err != nil {
		ui.NewPrinter(os.Stderr).Error(err)
		os.Exit(1)
	}
}
