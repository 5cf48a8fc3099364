package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrolab/voquery/internal/archive"
	"github.com/astrolab/voquery/internal/cli/ui"
)

var objectFields []string

// objectCmd is the object lookup command
var objectCmd = &cobra.Command{
	Use:   "object <identifier>",
	Short: "look up a named object in SIMBAD",
	Long: `Resolve a named astronomical object in the SIMBAD database.

Any identifier SIMBAD knows is accepted (Messier, NGC, HD, common
names). Extra output columns can be requested with --fields.`,
	Example: `  $ voq object "M 31"
  $ voq object "NGC 6543" --fields sp_type,rvz_radvel`,
	Args: cobra.ExactArgs(1),
	RunE: runObject,
}

func init() {
	objectCmd.Flags().StringSliceVar(&objectFields, "fields", nil, "extra output columns")
	objectCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")
	objectCmd.SilenceUsage = true
}

func runObject(cmd *cobra.Command, args []string) error {
	// object lookup is a SIMBAD operation unless the user points
	// elsewhere explicitly
	if flagArchive == "" {
		flagArchive = "simbad"
	}
	sess, err := newSession()
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	simbad := archive.NewSimbad(sess.tap, sess.desc)
	if len(objectFields) > 0 {
		simbad.AddOutputColumns(objectFields...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	table, err := simbad.QueryObject(ctx, args[0])
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	printTable(table)
	return nil
}
