// Command modelsync registers the assistant's system models with an MLflow tracking server.
package main

import (
	"os"

	"github.com/skosovsky/modelsync/internal/cli"
)

// version, commit, and date are set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := cli.Execute(version, commit, date); err != nil {
		os.Exit(1)
	}
}
