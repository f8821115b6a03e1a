package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-engine/export"
	"github.com/warp/rent-engine/rent"
	"github.com/xuri/excelize/v2"
)

func segment(objectID rent.ID, name string, month time.Month, rental string) rent.Segment {
	amount := decimal.RequireFromString(rental)
	from := rent.NewDate(2024, month, 1)
	return rent.Segment{
		RentalObjectID:   objectID,
		RentalObjectName: name,
		DateFrom:         from,
		DateTo:           from.EndOfMonth(),
		DaysInPeriod:     from.DaysInMonth(),
		DaysInMonth:      from.DaysInMonth(),
		ReportYear:       2024,
		ReportMonth:      int(month),
		ReportDate:       from,
		ContractName:     "Lease",
		Rental:           rent.ChargeAmount{Original: amount, CurrencySymbol: "$", TaxName: "VAT", Converted: amount},
		Total:            amount,
		CurrencySymbol:   "$",
	}
}

func TestWrite_Sheets(t *testing.T) {
	// GIVEN: two objects over two months
	segments := []rent.Segment{
		segment(1, "Shop A", time.January, "100"),
		segment(1, "Shop A", time.February, "150.5"),
		segment(2, "Shop B", time.January, "200"),
	}

	// WHEN
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, segments))

	// THEN
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.SheetSegments, export.SheetByObject, export.SheetByMonth}, f.GetSheetList())

	rows, err := f.GetRows(export.SheetSegments)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, export.SegmentHeader, rows[0])
	assert.Equal(t, "Shop A", rows[1][0])
	assert.Equal(t, "2024-01-01", rows[1][1])
	assert.Equal(t, "Lease", rows[1][6])
	assert.Equal(t, "VAT", rows[1][9])

	raw, err := f.GetCellValue(export.SheetSegments, "T3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "150.5", raw)

	byObject, err := f.GetRows(export.SheetByObject, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, byObject, 4)
	assert.Equal(t, []string{"Shop A", "250.5", "0", "0", "250.5"}, byObject[1])
	assert.Equal(t, []string{"Shop B", "200", "0", "0", "200"}, byObject[2])
	assert.Equal(t, "Total", byObject[3][0])
	assert.Equal(t, "450.5", byObject[3][4])

	byMonth, err := f.GetRows(export.SheetByMonth, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, byMonth, 4)
	assert.Equal(t, "2024-01", byMonth[1][0])
	assert.Equal(t, "300", byMonth[1][4])
	assert.Equal(t, "2024-02", byMonth[2][0])
}

func TestWrite_EmptyRunHasHeadersAndZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetByObject, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Total", "0", "0", "0", "0"}, rows[1])
}
