package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/astrolab/voquery/internal/cli/commands"
	"github.com/astrolab/voquery/internal/cli/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		// Handle unknown command errors specially
		errMsg := err.Error()
		if strings.Contains(errMsg, "unknown command") {
			ui.PrintError("%s", errMsg)
			fmt.Println("\nRun 'voq --help' for usage.")
		}
		os.Exit(1)
	}
}
