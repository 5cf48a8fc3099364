package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrolab/voquery/internal/archive"
	"github.com/astrolab/voquery/internal/cli/ui"
)

var (
	registryServiceType string
	registryWaveband    string
)

// registryCmd searches the virtual observatory registry
var registryCmd = &cobra.Command{
	Use:   "registry <keyword>...",
	Short: "search the VO registry for services",
	Long: `Search the Virtual Observatory registry for data services matching
one or more keywords. Results can be narrowed by service type (tap,
conesearch, sia, ssa) and waveband.`,
	Example: `  $ voq registry quasar
  $ voq registry galaxy survey --service-type tap --waveband infrared`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRegistry,
}

func init() {
	registryCmd.Flags().StringVar(&registryServiceType, "service-type", "", "restrict to one service type")
	registryCmd.Flags().StringVar(&registryWaveband, "waveband", "", "restrict to one waveband")
	registryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")
	registryCmd.Flags().IntVar(&queryMaxRows, "max-rows", 40, "rows to display, 0 for all")
	registryCmd.SilenceUsage = true
}

func runRegistry(cmd *cobra.Command, args []string) error {
	// registry searches always target the registry service
	if flagArchive == "" {
		flagArchive = "registry"
	}
	sess, err := newSession()
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	vo := archive.NewVORegistry(sess.tap, sess.desc)
	table, err := vo.Search(ctx, archive.RegistrySearch{
		Keywords:    args,
		ServiceType: registryServiceType,
		Waveband:    registryWaveband,
	})
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	printTable(table)
	return nil
}
