package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/warp/rent-engine/export"
	"github.com/warp/rent-engine/rent"
	"github.com/warp/rent-engine/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RentAnalysis runs the engine and returns segments plus summaries.
// GET /api/rent-analysis?date_from=YYYY-MM-DD&date_to=YYYY-MM-DD&group_id=N
// Missing bounds default to the current month.
func (h *Handler) RentAnalysis(w http.ResponseWriter, r *http.Request) {
	result, ok := h.runAnalysis(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewAnalysisResponse(result))
}

// ExportRentAnalysis runs the engine and returns an XLSX workbook.
// GET /api/rent-analysis/export (same parameters as RentAnalysis)
func (h *Handler) ExportRentAnalysis(w http.ResponseWriter, r *http.Request) {
	result, ok := h.runAnalysis(w, r)
	if !ok {
		return
	}

	// Buffered so a rendering failure can still become a JSON error.
	var buf bytes.Buffer
	if err := export.Write(&buf, result.Segments); err != nil {
		h.writeDomainError(w, "Failed to render workbook", err)
		return
	}

	filename := fmt.Sprintf("rent-analysis_%s_%s.xlsx", result.Range.Start, result.Range.End)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Run-ID", result.RunID)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) runAnalysis(w http.ResponseWriter, r *http.Request) (*report.Result, bool) {
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query parameters", err)
		return nil, false
	}

	result, err := h.Reports.Run(r.Context(), q)
	if err != nil {
		h.writeDomainError(w, "Rent analysis failed", err)
		return nil, false
	}
	return result, true
}

func (h *Handler) parseQuery(r *http.Request) (rent.Query, error) {
	params := r.URL.Query()

	var from, to *rent.Date
	for _, p := range []struct {
		name string
		dst  **rent.Date
	}{{"date_from", &from}, {"date_to", &to}} {
		raw := params.Get(p.name)
		if raw == "" {
			continue
		}
		d, err := rent.ParseDate(raw)
		if err != nil {
			return rent.Query{}, fmt.Errorf("%s: %w", p.name, err)
		}
		*p.dst = &d
	}

	q := rent.Query{Range: h.Reports.DefaultRange(from, to)}
	if raw := params.Get("group_id"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return rent.Query{}, fmt.Errorf("group_id: %w", err)
		}
		id := rent.ID(n)
		q.GroupID = &id
	}
	return q, nil
}

// NewAnalysisResponse converts a run into the JSON body shared by the API and
// "rentd report --json".
func NewAnalysisResponse(res *report.Result) AnalysisResponse {
	resp := AnalysisResponse{
		RunID:    res.RunID,
		DateFrom: res.Range.Start,
		DateTo:   res.Range.End,
		Currency: toCurrencyDTO(res.Currency),
		Segments: make([]SegmentDTO, len(res.Segments)),
		ByObject: make([]ObjectSummaryDTO, len(res.ByObject)),
		ByMonth:  make([]MonthSummaryDTO, len(res.ByMonth)),
		Total:    toTotalsDTO(res.Total),
	}
	for i, s := range res.Segments {
		resp.Segments[i] = toSegmentDTO(s)
	}
	for i, s := range res.ByObject {
		resp.ByObject[i] = ObjectSummaryDTO{RentalObjectID: s.RentalObjectID, RentalObjectName: s.RentalObjectName, TotalsDTO: toTotalsDTO(s.Totals)}
	}
	for i, s := range res.ByMonth {
		resp.ByMonth[i] = MonthSummaryDTO{Year: s.Year, Month: s.Month, TotalsDTO: toTotalsDTO(s.Totals)}
	}
	return resp
}

func toSegmentDTO(s rent.Segment) SegmentDTO {
	return SegmentDTO{
		RentalObjectID:   s.RentalObjectID,
		RentalObjectName: s.RentalObjectName,
		DateFrom:         s.DateFrom,
		DateTo:           s.DateTo,
		DaysInPeriod:     s.DaysInPeriod,
		DaysInMonth:      s.DaysInMonth,
		ReportYear:       s.ReportYear,
		ReportMonth:      s.ReportMonth,
		ReportDate:       s.ReportDate,
		ContractID:       s.ContractID,
		ContractName:     s.ContractName,
		Rental:           toChargeAmountDTO(s.Rental),
		Exploitation:     toChargeAmountDTO(s.Exploitation),
		Marketing:        toChargeAmountDTO(s.Marketing),
		Total:            s.Total,
		CurrencySymbol:   s.CurrencySymbol,
	}
}

func toChargeAmountDTO(a rent.ChargeAmount) ChargeAmountDTO {
	return ChargeAmountDTO{Original: a.Original, CurrencySymbol: a.CurrencySymbol, TaxName: a.TaxName, Converted: a.Converted}
}

func toTotalsDTO(t rent.Totals) TotalsDTO {
	return TotalsDTO{Rental: t.Rental, Exploitation: t.Exploitation, Marketing: t.Marketing, Total: t.Total}
}
