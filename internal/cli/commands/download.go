package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/astrolab/voquery/internal/archive"
	"github.com/astrolab/voquery/internal/cli/ui"
	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
	"github.com/astrolab/voquery/internal/download"
)

var (
	downloadDest     string
	downloadParallel int
	downloadYes      bool
)

// downloadCmd is the product download command
var downloadCmd = &cobra.Command{
	Use:   "download <observation-id>",
	Short: "download the products of an observation",
	Long: `List the downloadable products of an observation and fetch them.

Products are written to the download directory with a manifest.json
recording what was fetched. Files that already exist with the expected
size are skipped. Failed products are recorded in the manifest without
aborting the rest of the batch.`,
	Example: `  $ voq download 00123
  $ voq download jw02736-o001 -a mast --dest ./jwst --parallel 8 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVar(&downloadDest, "dest", "", "destination directory (default: config download_dir)")
	downloadCmd.Flags().IntVar(&downloadParallel, "parallel", 0, "concurrent downloads (default: config max_parallel)")
	downloadCmd.Flags().BoolVarP(&downloadYes, "yes", "y", false, "skip the confirmation prompt")
	downloadCmd.SilenceUsage = true
}

func runDownload(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	products, err := listProducts(ctx, sess, args[0])
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	if len(products) == 0 {
		ui.PrintWarning("observation %s has no downloadable products", args[0])
		return nil
	}

	fmt.Println(ui.RenderProducts(products))
	if !downloadYes {
		var total int64
		for _, p := range products {
			total += p.Size
		}
		confirm := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Download %d products (%s)?", len(products), ui.FormatSize(total)),
			Default: true,
		}
		if err := survey.AskOne(prompt, &confirm); err != nil {
			return err
		}
		if !confirm {
			ui.PrintInfo("download cancelled")
			return nil
		}
	}

	dest := downloadDest
	if dest == "" {
		dest = sess.cfg.DownloadDir
	}
	parallel := downloadParallel
	if parallel <= 0 {
		parallel = sess.cfg.MaxParallel
	}

	svc := download.NewService(sess.tap, dest, parallel, nil)
	svc.SetUpdateCallback(func(t *download.Task) {
		switch t.Status {
		case entity.DownloadCompleted:
			ui.PrintSuccess("%s (%s)", t.Product.Name, ui.FormatSize(t.Bytes))
		case entity.DownloadSkipped:
			ui.PrintInfo("%s already present, skipped", t.Product.Name)
		case entity.DownloadFailed:
			ui.PrintError("%s: %s", t.Product.Name, t.LastError)
		}
	})

	manifest, err := svc.DownloadAll(ctx, sess.desc.Name, products)
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	manifestPath, err := svc.WriteManifest(manifest)
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	var completed, skipped, failed int
	for _, e := range manifest.Entries {
		switch e.Status {
		case entity.DownloadCompleted:
			completed++
		case entity.DownloadSkipped:
			skipped++
		case entity.DownloadFailed:
			failed++
		}
	}
	ui.PrintBold("%d downloaded, %d skipped, %d failed", completed, skipped, failed)
	ui.PrintInfo("manifest written to %s", manifestPath)
	if failed > 0 {
		return domain.NewInternalError(fmt.Errorf("%d products failed to download", failed))
	}
	return nil
}

// listProducts resolves the product list through the archive client
func listProducts(ctx context.Context, sess *session, obsID string) ([]entity.Product, error) {
	switch sess.desc.Name {
	case "euclid":
		return archive.NewEuclid(sess.tap, sess.desc).Products(ctx, obsID)
	case "mast":
		return archive.NewMAST(sess.tap, sess.desc).Products(ctx, obsID)
	default:
		return nil, domain.NewInvalidQueryError(
			fmt.Sprintf("archive %q does not serve data products", sess.desc.Name))
	}
}
