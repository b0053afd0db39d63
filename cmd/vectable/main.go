// Package main is the entry point for the vectable CLI.
package main

import (
	"os"

	"github.com/hupe1980/vectable/internal/cli"
	"github.com/hupe1980/vectable/internal/ui"
)

// Version information (set at build time via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ui.InitLogger()
	cli.SetVersionInfo(version, commit, date)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
