package rent

// MonthSlice is the part of an interval that falls inside one calendar month.
// Rates are monthly, so proration needs both the slice length and the month length.
type MonthSlice struct {
	Period
	Contract    *Contract
	Days        int // days in the slice
	DaysInMonth int // calendar days of the slice's month (28-31)
}

// MonthEnd is the last day of the slice's month; conversions are dated here.
func (s MonthSlice) MonthEnd() Date { return s.Start.EndOfMonth() }

// SplitByMonth cuts an interval at every calendar-month end.
func SplitByMonth(iv Interval) []MonthSlice {
	var slices []MonthSlice
	cursor := iv.Start
	for cursor.BeforeOrEqual(iv.End) {
		end := cursor.EndOfMonth()
		if iv.End.Before(end) {
			end = iv.End
		}
		p := Period{Start: cursor, End: end}
		slices = append(slices, MonthSlice{
			Period:      p,
			Contract:    iv.Contract,
			Days:        p.Days(),
			DaysInMonth: cursor.DaysInMonth(),
		})
		cursor = end.AddDays(1)
	}
	return slices
}
