package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/rent-engine/api"
	"github.com/warp/rent-engine/export"
	"github.com/warp/rent-engine/rent"
	"github.com/warp/rent-engine/report"
)

type reportOptions struct {
	from, to string
	groupID  int64
	xlsxPath string
	asJSON   bool
}

func reportCmd(a *app) *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run a rent analysis",
		Long: `Run a rent analysis over the configured database.

Missing bounds default to the current month. The result is printed as a
table unless --json or --xlsx is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.report(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().Int64Var(&opts.groupID, "group", 0, "restrict to a rental object group and its subgroups")
	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "write the workbook to this path")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the analysis as JSON")
	cmd.MarkFlagsMutuallyExclusive("xlsx", "json")
	return cmd
}

func (a *app) report(cmd *cobra.Command, opts reportOptions) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runner := a.newRunner(store, nil)

	q, err := opts.query(runner)
	if err != nil {
		return err
	}
	res, err := runner.Run(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case opts.xlsxPath != "":
		f, err := os.Create(opts.xlsxPath)
		if err != nil {
			return err
		}
		if err := export.Write(f, res.Segments); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d segments to %s\n", len(res.Segments), opts.xlsxPath)
		return nil
	case opts.asJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(api.NewAnalysisResponse(res))
	default:
		renderReport(out, res)
		return nil
	}
}

func (o reportOptions) query(runner *report.Runner) (rent.Query, error) {
	var from, to *rent.Date
	for _, f := range []struct {
		flag string
		raw  string
		dst  **rent.Date
	}{{"--from", o.from, &from}, {"--to", o.to, &to}} {
		if f.raw == "" {
			continue
		}
		d, err := rent.ParseDate(f.raw)
		if err != nil {
			return rent.Query{}, fmt.Errorf("%s: %w", f.flag, err)
		}
		*f.dst = &d
	}

	q := rent.Query{Range: runner.DefaultRange(from, to)}
	if o.groupID != 0 {
		id := rent.ID(o.groupID)
		q.GroupID = &id
	}
	return q, nil
}

// =============================================================================
// TERMINAL OUTPUT
// =============================================================================

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	amountStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// renderReport prints the segments, then the per-object summary.
func renderReport(w io.Writer, res *report.Result) {
	code := res.Currency.Code
	fmt.Fprintf(w, "Rent analysis %s (%s), run %s\n\n", res.Range, code, res.RunID)

	rows := make([][]string, 0, len(res.Segments))
	for _, s := range res.Segments {
		rows = append(rows, []string{
			s.RentalObjectName,
			s.DateFrom.String(),
			s.DateTo.String(),
			strconv.Itoa(s.DaysInPeriod),
			s.ContractName,
			money(s.Rental.Converted),
			money(s.Exploitation.Converted),
			money(s.Marketing.Converted),
			money(s.Total),
		})
	}
	fmt.Fprintln(w, newTable(5, "Object", "From", "To", "Days", "Contract", "Rental", "Exploitation", "Marketing", "Total").Rows(rows...))

	summary := make([][]string, 0, len(res.ByObject)+1)
	for _, s := range res.ByObject {
		summary = append(summary, totalsRow(s.RentalObjectName, s.Totals))
	}
	summary = append(summary, totalsRow("Total", res.Total))
	fmt.Fprintln(w, newTable(1, "Object", "Rental", "Exploitation", "Marketing", "Total "+code).Rows(summary...))
}

// newTable right-aligns every column from firstAmount on.
func newTable(firstAmount int, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col >= firstAmount:
				return amountStyle
			default:
				return cellStyle
			}
		})
}

func totalsRow(label string, t rent.Totals) []string {
	return []string{label, money(t.Rental), money(t.Exploitation), money(t.Marketing), money(t.Total)}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
