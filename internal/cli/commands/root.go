package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/astrolab/voquery/internal/cli/ui"
)

const version = "0.1.0"

// rootCmd is the root command
var rootCmd = &cobra.Command{
	Use:     "voq",
	Short:   "Virtual Observatory archive query CLI",
	Version: version,
	Long: `A command-line client for astronomical data archives (Euclid, MAST,
SIMBAD, the VO registry) speaking the IVOA Table Access Protocol.
Runs synchronous and asynchronous ADQL queries, cone searches, object
lookups, and product downloads.`,
	Example: `  # Run a raw ADQL query against the default archive
  $ voq query -q "SELECT TOP 10 * FROM sascat.observation"

  # Search MAST observations by column criteria
  $ voq query -a mast --criteria obs_collection=JWST --criteria t_exptime=300..600

  # Cone search around M31
  $ voq cone --ra 10.68 --dec 41.27 --radius 0.5

  # Wait for an asynchronous job and fetch its results
  $ voq job wait 1f6b3a9c

  # Download all products of an observation
  $ voq download 00123`,
}

// Execute executes the root command
func Execute() error {
	rootCmd.SetVersionTemplate(formatVersion())
	return rootCmd.Execute()
}

func init() {
	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(coneCmd)
	rootCmd.AddCommand(objectCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(archivesCmd)
	rootCmd.AddCommand(registryCmd)

	// Set custom template with bold uppercase headers
	rootCmd.SetUsageTemplate(usageTemplate())
	rootCmd.SetHelpTemplate(usageTemplate())
}

func usageTemplate() string {
	return `{{if .Long}}{{.Long}}

{{end}}` + ui.Styles.Bold.Render("USAGE") + `
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasExample}}` + ui.Styles.Bold.Render("EXAMPLES") + `
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}` + ui.Styles.Bold.Render("COMMANDS") + `{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableLocalFlags}}` + ui.Styles.Bold.Render("OPTIONS") + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}

// formatVersion formats the version output
func formatVersion() string {
	return fmt.Sprintf("voq version %s\n", version)
}
