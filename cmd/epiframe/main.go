package main

import (
	"os"

	"github.com/epiframe/epiframe/internal/cli"
)

func main() {
	// Commands render their own reports; Execute's error only carries
	// the exit code.
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
