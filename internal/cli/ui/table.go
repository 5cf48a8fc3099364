package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/astrolab/voquery/internal/archive"
	"github.com/astrolab/voquery/internal/domain/entity"
)

var (
	tableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tableHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// RenderTable renders a query result. maxRows bounds the rendered rows;
// zero means all. A footer reports what was shown.
func RenderTable(t *entity.Table, maxRows int) string {
	if t == nil || len(t.Columns) == 0 {
		return Styles.Dim.Render("No columns")
	}
	if t.Len() == 0 {
		return Styles.Dim.Render("No rows matched")
	}

	shown := t.Len()
	if maxRows > 0 && shown > maxRows {
		shown = maxRows
	}

	out := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle.Padding(0, 1)
			}
			return tableCellStyle
		}).
		Headers(t.ColumnNames()...)
	for _, row := range t.Rows[:shown] {
		out = out.Rows(row)
	}

	footer := fmt.Sprintf("%d rows", t.Len())
	if shown < t.Len() {
		footer = fmt.Sprintf("%d of %d rows shown", shown, t.Len())
	}
	if t.Truncated {
		footer += " (result truncated by service row limit)"
	}
	return out.String() + "\n" + Styles.Dim.Render(footer)
}

// RenderJob renders an async job handle
func RenderJob(job *entity.Job) string {
	var b strings.Builder
	b.WriteString(Styles.Header.Render("Job "+job.JobID) + "\n")

	phase := string(job.Phase)
	switch job.Phase {
	case entity.PhaseCompleted:
		phase = Styles.Highlight.Render(phase)
	case entity.PhaseError, entity.PhaseAborted:
		phase = Styles.Bold.Render(phase)
	}
	fmt.Fprintf(&b, "  %s %s\n", Styles.Dim.Render("phase:"), phase)
	fmt.Fprintf(&b, "  %s %s\n", Styles.Dim.Render("query:"), job.Query)
	if job.StartTime != nil {
		fmt.Fprintf(&b, "  %s %s\n", Styles.Dim.Render("started:"), job.StartTime.Format("2006-01-02 15:04:05"))
	}
	if job.EndTime != nil {
		fmt.Fprintf(&b, "  %s %s\n", Styles.Dim.Render("ended:"), job.EndTime.Format("2006-01-02 15:04:05"))
	}
	if job.ErrorSummary != "" {
		fmt.Fprintf(&b, "  %s %s\n", Styles.Dim.Render("error:"), job.ErrorSummary)
	}
	return b.String()
}

// RenderProducts renders a product listing
func RenderProducts(products []entity.Product) string {
	if len(products) == 0 {
		return Styles.Dim.Render("No products")
	}
	out := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle.Padding(0, 1)
			}
			return tableCellStyle
		}).
		Headers("NAME", "FILE", "SIZE", "TYPE")
	for _, p := range products {
		out = out.Rows([]string{p.Name, p.FileName, FormatSize(p.Size), p.MimeType})
	}
	return out.String()
}

// RenderArchives renders the archive registry
func RenderArchives(archives []archive.Descriptor) string {
	out := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle.Padding(0, 1)
			}
			return tableCellStyle
		}).
		Headers("NAME", "BASE URL", "DEFAULT TABLE", "DESCRIPTION")
	for _, d := range archives {
		out = out.Rows([]string{d.Name, d.BaseURL, d.DefaultTable, d.Description})
	}
	return out.String()
}

// FormatSize renders a byte count for humans
func FormatSize(n int64) string {
	switch {
	case n <= 0:
		return "-"
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KiB", float64(n)/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1024*1024*1024))
	}
}
