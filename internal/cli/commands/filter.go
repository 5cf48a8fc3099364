package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/astrolab/voquery/internal/adql"
	"github.com/astrolab/voquery/internal/cli/ui"
	"github.com/astrolab/voquery/internal/domain/entity"
	"github.com/astrolab/voquery/internal/votable"
)

var (
	filterCriteria []string
	filterColumns  []string
)

// filterCmd filters a saved result table client-side
var filterCmd = &cobra.Command{
	Use:   "filter <result-file>",
	Short: "filter a saved result table by column criteria",
	Long: `Filter a previously saved query result without touching the network.

The file may be JSON (as written by 'voq query --json') or a VOTable
document. Criteria use the same syntax as 'voq query --criteria':
ranges (lo..hi), negation (!value), wildcards (* and ?), and
comma-separated membership lists.`,
	Example: `  $ voq query --json -q "SELECT * FROM sascat.observation" > result.json
  $ voq filter result.json --criteria instrument_name=VIS --criteria t_exptime=100..500
  $ voq filter result.json --criteria 'target_name=M*' --columns target_name,ra,dec`,
	Args: cobra.ExactArgs(1),
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringArrayVar(&filterCriteria, "criteria", nil, "column=value filter, repeatable")
	filterCmd.Flags().StringSliceVar(&filterColumns, "columns", nil, "columns to keep, in order")
	filterCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")
	filterCmd.Flags().IntVar(&queryMaxRows, "max-rows", 40, "rows to display, 0 for all")
	filterCmd.SilenceUsage = true
}

func runFilter(cmd *cobra.Command, args []string) error {
	table, err := loadResultFile(args[0])
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	criteria, err := parseCriteria(filterCriteria)
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	filtered, err := adql.Filter(table, criteria)
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	if len(filterColumns) > 0 {
		filtered, err = filtered.Select(filterColumns...)
		if err != nil {
			ui.PrintError("%s", userMessage(err))
			return err
		}
	}
	printTable(filtered)
	return nil
}

// loadResultFile reads a saved table, sniffing JSON vs VOTable
func loadResultFile(path string) (*entity.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return votable.Decode(bytes.NewReader(data))
	}

	var table entity.Table
	if err := sonic.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse result file: %w", err)
	}
	return &table, nil
}
