package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/astrolab/voquery/internal/adql"
	"github.com/astrolab/voquery/internal/cli/loader"
	"github.com/astrolab/voquery/internal/cli/ui"
	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
)

var (
	queryADQL     string
	queryFile     string
	queryCriteria []string
	queryTable    string
	queryColumns  []string
	queryTop      int
	queryOrderBy  string
	queryAsync    bool
	queryJSON     bool
	queryMaxRows  int
)

// queryCmd is the query command
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "run an ADQL or criteria query against an archive",
	Long: `Run a query against an archive's TAP service.

The query is given either as raw ADQL (-q), as a YAML query file (-f),
or as repeated --criteria column=value filters that are translated to an
ADQL WHERE clause. Criteria values support ranges (lo..hi), negation
(!value), wildcards (* and ?), and comma-separated membership lists.

With --async the query is submitted as a job and the job ID is printed;
use 'voq job wait' to collect the results later.`,
	Example: `  # Raw ADQL
  $ voq query -q "SELECT TOP 5 * FROM sascat.observation"

  # Criteria translated to ADQL
  $ voq query -a mast --criteria obs_collection=JWST,HST --criteria t_exptime=300..600

  # Negation and wildcards
  $ voq query -a mast --criteria 'target_name=M3*' --criteria 'instrument_name=!WFC3'

  # From a YAML file, asynchronously
  $ voq query -f myquery.yaml --async`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryADQL, "adql", "q", "", "raw ADQL query")
	queryCmd.Flags().StringVarP(&queryFile, "file", "f", "", "YAML query definition file")
	queryCmd.Flags().StringArrayVar(&queryCriteria, "criteria", nil, "column=value filter, repeatable")
	queryCmd.Flags().StringVarP(&queryTable, "table", "t", "", "table to query (default: the archive's default table)")
	queryCmd.Flags().StringSliceVar(&queryColumns, "columns", nil, "output columns")
	queryCmd.Flags().IntVar(&queryTop, "top", 0, "maximum number of rows")
	queryCmd.Flags().StringVar(&queryOrderBy, "order-by", "", "sort column, prefix with - for descending")
	queryCmd.Flags().BoolVar(&queryAsync, "async", false, "submit as an asynchronous job")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")
	queryCmd.Flags().IntVar(&queryMaxRows, "max-rows", 40, "rows to display, 0 for all")

	queryCmd.SilenceUsage = true
}

func runQuery(cmd *cobra.Command, args []string) error {
	qf, err := loadQueryFile()
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	if qf != nil {
		name, err := fileArchive(flagArchive, qf.Spec.Archive)
		if err != nil {
			ui.PrintError("%s", userMessage(err))
			return err
		}
		flagArchive = name
	}

	sess, err := newSession()
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	query, async, err := resolveQuery(sess, qf)
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if async {
		job, err := sess.tap.SubmitJob(ctx, query)
		if err != nil {
			ui.PrintError("%s", userMessage(err))
			return err
		}
		ui.PrintSuccess("job submitted to %s", sess.desc.Name)
		fmt.Print(ui.RenderJob(job))
		fmt.Printf("\nCheck it with: voq job status %s -a %s\n", job.JobID, sess.desc.Name)
		return nil
	}

	table, err := sess.tap.Query(ctx, query)
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	printTable(table)
	return nil
}

// loadQueryFile validates the source flag combination and loads the
// query file when one was given
func loadQueryFile() (*loader.QueryFile, error) {
	sources := 0
	if queryADQL != "" {
		sources++
	}
	if queryFile != "" {
		sources++
	}
	if len(queryCriteria) > 0 {
		sources++
	}
	if sources == 0 {
		return nil, domain.NewInvalidQueryError("one of -q, -f, or --criteria is required")
	}
	if sources > 1 {
		return nil, domain.NewInvalidQueryError("-q, -f, and --criteria are mutually exclusive")
	}
	if queryFile == "" {
		return nil, nil
	}

	qf, err := loader.LoadFromFile(queryFile)
	if err != nil {
		return nil, domain.NewInvalidQueryError(err.Error())
	}
	return qf, nil
}

// fileArchive reconciles the query file's archive with the --archive flag
func fileArchive(flagName, specName string) (string, error) {
	if specName == "" {
		return flagName, nil
	}
	if flagName != "" && !strings.EqualFold(flagName, specName) {
		return "", domain.NewInvalidQueryError(fmt.Sprintf(
			"query file targets archive %q but --archive says %q", specName, flagName))
	}
	return specName, nil
}

// resolveQuery builds the ADQL from whichever input was given
func resolveQuery(sess *session, qf *loader.QueryFile) (string, bool, error) {
	if qf != nil {
		return queryFromFile(sess, qf)
	}

	if queryADQL != "" {
		return queryADQL, queryAsync, nil
	}

	criteria, err := parseCriteria(queryCriteria)
	if err != nil {
		return "", false, err
	}

	table := queryTable
	if table == "" {
		table = sess.desc.DefaultTable
	}
	top := queryTop
	if top <= 0 {
		top = sess.desc.RowLimit
	}

	b := adql.NewBuilder(table).Top(top)
	if len(queryColumns) > 0 {
		b = b.Columns(queryColumns...)
	}
	if queryOrderBy != "" {
		b = b.OrderBy(queryOrderBy)
	}
	b, err = b.WhereCriteria(criteria)
	if err != nil {
		return "", false, err
	}
	query, err := b.Build()
	return query, queryAsync, err
}

// queryFromFile builds the ADQL from a loaded YAML query definition
func queryFromFile(sess *session, qf *loader.QueryFile) (string, bool, error) {
	spec := qf.Spec

	if spec.ADQL != "" {
		return spec.ADQL, queryAsync || spec.Async, nil
	}

	table := spec.Table
	if table == "" {
		table = sess.desc.DefaultTable
	}
	top := spec.Top
	if top <= 0 {
		top = sess.desc.RowLimit
	}

	b := adql.NewBuilder(table).Top(top)
	if len(spec.Columns) > 0 {
		b = b.Columns(spec.Columns...)
	}
	if spec.OrderBy != "" {
		b = b.OrderBy(spec.OrderBy)
	}
	if spec.Cone != nil {
		cone, err := adql.ConeSearch(sess.desc.RAColumn, sess.desc.DecColumn,
			spec.Cone.RA, spec.Cone.Dec, spec.Cone.Radius)
		if err != nil {
			return "", false, err
		}
		b = b.Where(cone)
	}
	if criteria := spec.AsCriteria(); criteria != nil {
		var err error
		b, err = b.WhereCriteria(criteria)
		if err != nil {
			return "", false, err
		}
	}
	query, err := b.Build()
	return query, queryAsync || spec.Async, err
}

// printTable renders a result table, honoring --json
func printTable(table *entity.Table) {
	if queryJSON {
		data, err := sonic.MarshalIndent(table, "", "  ")
		if err != nil {
			ui.PrintError("failed to marshal result: %v", err)
			return
		}
		os.Stdout.Write(data)
		fmt.Println()
		return
	}
	fmt.Println(ui.RenderTable(table, queryMaxRows))
	if table.Truncated {
		ui.PrintWarning("the service truncated this result at its row limit")
	}
}

// userMessage extracts the user-facing message from a domain error
func userMessage(err error) string {
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		return derr.UserMessage()
	}
	return err.Error()
}
