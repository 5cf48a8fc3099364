package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/astrolab/voquery/internal/archive"
	"github.com/astrolab/voquery/internal/cli/config"
	"github.com/astrolab/voquery/internal/cli/ui"
)

// archivesCmd lists the known archives
var archivesCmd = &cobra.Command{
	Use:   "archives",
	Short: "list the built-in archives",
	Long: `List the archives this client knows about, with their TAP base
URLs and default tables. Base URLs can be overridden per archive in
~/.voquery/config.json under "servers", or per invocation with
--server.`,
	RunE: runArchives,
}

func init() {
	archivesCmd.SilenceUsage = true
}

func runArchives(cmd *cobra.Command, args []string) error {
	registry := archive.BuiltinRegistry()

	cfg, err := config.Load()
	if err == nil {
		for name, baseURL := range cfg.Servers {
			_ = registry.Override(name, baseURL)
		}
	}

	fmt.Println(ui.RenderArchives(registry.List()))
	return nil
}
