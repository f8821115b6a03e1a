package rent

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Totals aggregates converted amounts.
type Totals struct {
	Rental       decimal.Decimal
	Exploitation decimal.Decimal
	Marketing    decimal.Decimal
	Total        decimal.Decimal
}

func (t Totals) add(s Segment) Totals {
	return Totals{
		Rental:       t.Rental.Add(s.Rental.Converted),
		Exploitation: t.Exploitation.Add(s.Exploitation.Converted),
		Marketing:    t.Marketing.Add(s.Marketing.Converted),
		Total:        t.Total.Add(s.Total),
	}
}

// ObjectSummary is the per-object pivot of a run.
type ObjectSummary struct {
	RentalObjectID   ID
	RentalObjectName string
	Totals
}

// MonthSummary is the per-month pivot of a run.
type MonthSummary struct {
	Year  int
	Month int
	Totals
}

// SummarizeByObject totals segments per rental object, in first-seen order.
func SummarizeByObject(segments []Segment) []ObjectSummary {
	index := make(map[ID]int)
	var out []ObjectSummary
	for _, s := range segments {
		i, ok := index[s.RentalObjectID]
		if !ok {
			i = len(out)
			index[s.RentalObjectID] = i
			out = append(out, ObjectSummary{RentalObjectID: s.RentalObjectID, RentalObjectName: s.RentalObjectName})
		}
		out[i].Totals = out[i].Totals.add(s)
	}
	return out
}

// SummarizeByMonth totals segments per calendar month, chronologically.
func SummarizeByMonth(segments []Segment) []MonthSummary {
	index := make(map[int]int)
	var out []MonthSummary
	for _, s := range segments {
		key := s.ReportYear*100 + s.ReportMonth
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MonthSummary{Year: s.ReportYear, Month: s.ReportMonth})
		}
		out[i].Totals = out[i].Totals.add(s)
	}
	// Objects restart the calendar, so first-seen order is not chronological.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Year*100+out[i].Month < out[j].Year*100+out[j].Month
	})
	return out
}

// GrandTotal sums every segment.
func GrandTotal(segments []Segment) Totals {
	var t Totals
	for _, s := range segments {
		t = t.add(s)
	}
	return t
}
