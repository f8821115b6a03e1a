/*
Package export renders rent analysis runs as XLSX workbooks.

SHEETS:
  Segments:  one row per segment, the flat engine output
  By object: rental/exploitation/marketing/total per rental object
  By month:  the same totals per calendar month

Money cells are numeric with a two-decimal display format; the decimal
strings the engine produced are converted only at this boundary.
*/
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/warp/rent-engine/rent"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSegments = "Segments"
	SheetByObject = "By object"
	SheetByMonth  = "By month"
)

// SegmentHeader is the header row of the Segments sheet.
var SegmentHeader = []string{
	"Rental Object",
	"Date From",
	"Date To",
	"Days",
	"Days In Month",
	"Report Date",
	"Contract",
	"Rental (orig.)",
	"Rental Cur.",
	"Rental Tax",
	"Rental",
	"Exploitation (orig.)",
	"Exploitation Cur.",
	"Exploitation Tax",
	"Exploitation",
	"Marketing (orig.)",
	"Marketing Cur.",
	"Marketing Tax",
	"Marketing",
	"Total",
	"Currency",
}

var summaryHeader = []string{"Rental", "Exploitation", "Marketing", "Total"}

type sheetWriter struct {
	f      *excelize.File
	header int
	money  int
}

// Workbook builds the analysis workbook. The caller owns the returned file
// and must Close it.
func Workbook(segments []rent.Segment) (*excelize.File, error) {
	f := excelize.NewFile()

	w, err := newSheetWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	steps := []func([]rent.Segment) error{w.segments, w.byObject, w.byMonth}
	for _, step := range steps {
		if err := step(segments); err != nil {
			f.Close()
			return nil, err
		}
	}

	// Default Sheet1 is replaced by ours.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(SheetSegments)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

// Write streams the analysis workbook to w.
func Write(w io.Writer, segments []rent.Segment) error {
	f, err := Workbook(segments)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func newSheetWriter(f *excelize.File) (*sheetWriter, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	format := "#,##0.00"
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return nil, fmt.Errorf("failed to create money style: %w", err)
	}
	return &sheetWriter{f: f, header: header, money: money}, nil
}

func (w *sheetWriter) newSheet(name string, header []string, widths ...float64) error {
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	if err := w.row(name, 1, toCells(header)); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(name, "A1", last, w.header); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(name, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return w.f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func (w *sheetWriter) row(sheet string, n int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", n, sheet, err)
	}
	return nil
}

// styleMoney applies the money format to the given columns of row n.
func (w *sheetWriter) styleMoney(sheet string, n int, cols ...int) error {
	for _, c := range cols {
		cell, err := excelize.CoordinatesToCellName(c, n)
		if err != nil {
			return err
		}
		if err := w.f.SetCellStyle(sheet, cell, cell, w.money); err != nil {
			return err
		}
	}
	return nil
}

func (w *sheetWriter) segments(segments []rent.Segment) error {
	if err := w.newSheet(SheetSegments, SegmentHeader, 25, 12, 12, 6, 8, 12, 30); err != nil {
		return err
	}
	for i, s := range segments {
		n := i + 2
		cells := []any{
			s.RentalObjectName,
			s.DateFrom.String(),
			s.DateTo.String(),
			s.DaysInPeriod,
			s.DaysInMonth,
			s.ReportDate.String(),
			s.ContractName,
		}
		for _, kind := range rent.ChargeKinds {
			a := s.Amount(kind)
			cells = append(cells, money(a.Original), a.CurrencySymbol, a.TaxName, money(a.Converted))
		}
		cells = append(cells, money(s.Total), s.CurrencySymbol)

		if err := w.row(SheetSegments, n, cells); err != nil {
			return err
		}
		if err := w.styleMoney(SheetSegments, n, 8, 11, 12, 15, 16, 19, 20); err != nil {
			return err
		}
	}
	return nil
}

func (w *sheetWriter) byObject(segments []rent.Segment) error {
	header := append([]string{"Rental Object"}, summaryHeader...)
	if err := w.newSheet(SheetByObject, header, 25, 14, 14, 14, 14); err != nil {
		return err
	}
	summaries := rent.SummarizeByObject(segments)
	for i, s := range summaries {
		if err := w.totalsRow(SheetByObject, i+2, s.RentalObjectName, s.Totals); err != nil {
			return err
		}
	}
	return w.totalsRow(SheetByObject, len(summaries)+2, "Total", rent.GrandTotal(segments))
}

func (w *sheetWriter) byMonth(segments []rent.Segment) error {
	header := append([]string{"Month"}, summaryHeader...)
	if err := w.newSheet(SheetByMonth, header, 12, 14, 14, 14, 14); err != nil {
		return err
	}
	summaries := rent.SummarizeByMonth(segments)
	for i, s := range summaries {
		label := fmt.Sprintf("%04d-%02d", s.Year, s.Month)
		if err := w.totalsRow(SheetByMonth, i+2, label, s.Totals); err != nil {
			return err
		}
	}
	return w.totalsRow(SheetByMonth, len(summaries)+2, "Total", rent.GrandTotal(segments))
}

func (w *sheetWriter) totalsRow(sheet string, n int, label string, t rent.Totals) error {
	cells := []any{label, money(t.Rental), money(t.Exploitation), money(t.Marketing), money(t.Total)}
	if err := w.row(sheet, n, cells); err != nil {
		return err
	}
	return w.styleMoney(sheet, n, 2, 3, 4, 5)
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
