package rent

// =============================================================================
// PERIOD - Inclusive date range used for reporting ranges, intervals and slices
// =============================================================================

// Period is the closed range [Start, End]. A Period with End before Start is empty.
//
// Examples:
//   - Reporting range 2025: Jan 1 - Dec 31
//   - Contract coverage: contract date - expiration date
//   - Month slice: Jan 15 - Jan 31
type Period struct {
	Start Date
	End   Date
}

// Validate returns an InvalidRangeError when Start is after End.
func (p Period) Validate() error {
	if p.Start.After(p.End) {
		return &InvalidRangeError{From: p.Start, To: p.End}
	}
	return nil
}

// IsEmpty reports whether the period contains no day.
func (p Period) IsEmpty() bool { return p.Start.After(p.End) }

// Contains returns true if the date is within the period [Start, End]
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Covers returns true if other lies entirely within p.
func (p Period) Covers(other Period) bool {
	return p.Start.BeforeOrEqual(other.Start) && p.End.AfterOrEqual(other.End)
}

// Overlaps returns true if the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && p.End.AfterOrEqual(other.Start)
}

// Clip returns the intersection of p and bounds. The result may be empty.
func (p Period) Clip(bounds Period) Period {
	out := p
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out
}

// Days returns the number of days in the period (0 when empty).
func (p Period) Days() int {
	if p.IsEmpty() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
