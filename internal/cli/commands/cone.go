package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrolab/voquery/internal/adql"
	"github.com/astrolab/voquery/internal/archive"
	"github.com/astrolab/voquery/internal/cli/ui"
	"github.com/astrolab/voquery/internal/domain/entity"
)

var (
	coneRA     float64
	coneDec    float64
	coneRadius float64
)

// coneCmd is the cone search command
var coneCmd = &cobra.Command{
	Use:   "cone",
	Short: "search an archive around a sky position",
	Long: `Search the target archive for rows inside a circle on the sky.

The position is given as ICRS right ascension and declination in
decimal degrees, with the search radius also in degrees.`,
	Example: `  # Everything within half a degree of M31
  $ voq cone --ra 10.68 --dec 41.27 --radius 0.5

  # Same region in the SIMBAD object database
  $ voq cone -a simbad --ra 10.68 --dec 41.27 --radius 0.1`,
	RunE: runCone,
}

func init() {
	coneCmd.Flags().Float64Var(&coneRA, "ra", 0, "right ascension in decimal degrees (ICRS)")
	coneCmd.Flags().Float64Var(&coneDec, "dec", 0, "declination in decimal degrees (ICRS)")
	coneCmd.Flags().Float64Var(&coneRadius, "radius", 0, "search radius in degrees")
	coneCmd.MarkFlagRequired("ra")
	coneCmd.MarkFlagRequired("dec")
	coneCmd.MarkFlagRequired("radius")

	coneCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")
	coneCmd.Flags().IntVar(&queryMaxRows, "max-rows", 40, "rows to display, 0 for all")

	coneCmd.SilenceUsage = true
}

func runCone(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var table *entity.Table
	switch sess.desc.Name {
	case "euclid":
		table, err = archive.NewEuclid(sess.tap, sess.desc).ConeSearch(ctx, coneRA, coneDec, coneRadius)
	case "mast":
		table, err = archive.NewMAST(sess.tap, sess.desc).ConeSearch(ctx, coneRA, coneDec, coneRadius)
	case "simbad":
		table, err = archive.NewSimbad(sess.tap, sess.desc).ConeSearch(ctx, coneRA, coneDec, coneRadius)
	default:
		table, err = genericConeSearch(ctx, sess)
	}
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	printTable(table)
	return nil
}

// genericConeSearch covers archives without a dedicated client type
func genericConeSearch(ctx context.Context, sess *session) (*entity.Table, error) {
	cone, err := adql.ConeSearch(sess.desc.RAColumn, sess.desc.DecColumn, coneRA, coneDec, coneRadius)
	if err != nil {
		return nil, err
	}
	query, err := adql.NewBuilder(sess.desc.DefaultTable).
		Top(sess.desc.RowLimit).
		Where(cone).
		Build()
	if err != nil {
		return nil, err
	}
	return sess.tap.Query(ctx, query)
}
