/*
partition.go - Contract interval resolution

PURPOSE:
  Splits a reporting range into ordered, non-overlapping intervals such that
  exactly one contract (or none) governs each interval.

ALGORITHM:
  1. Significant dates: range start, range end + 1, every contract start
     inside the range, and the day after every expiration inside
     [start, end). These are the only days the effective contract can change.
  2. Consecutive significant dates d[i], d[i+1] give [d[i], d[i+1]-1],
     clipped to the range. Empty intervals are dropped.
  3. The effective contract of an interval is the most recent contract
     (start desc, ID desc) that covers the WHOLE interval. A contract that
     ends mid-range therefore hands over to whichever older contract still
     covers the remainder, or to nobody.

EXAMPLE:
  Range Jan 1 - Jan 31, contract Jan 15 - Jan 20
  Significant dates: Jan 1, Jan 15, Jan 21, Feb 1
  Intervals: [Jan 1, Jan 14] none, [Jan 15, Jan 20] contract, [Jan 21, Jan 31] none

SEE ALSO:
  - segment.go: Splits each interval at month boundaries
*/
package rent

import "sort"

// Interval is a date range governed by at most one contract.
type Interval struct {
	Period
	Contract *Contract
}

// SortByRecency orders contracts by start date descending, then ID descending.
// The input is not modified.
func SortByRecency(contracts []Contract) []Contract {
	sorted := make([]Contract, len(contracts))
	copy(sorted, contracts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].ID > sorted[j].ID
	})
	return sorted
}

// SignificantDates returns the sorted, de-duplicated dates at which the
// effective contract may change within rng. The last element is rng.End + 1.
func SignificantDates(rng Period, contracts []Contract) []Date {
	seen := make(map[string]bool)
	var dates []Date
	add := func(d Date) {
		if !seen[d.String()] {
			seen[d.String()] = true
			dates = append(dates, d)
		}
	}

	add(rng.Start)
	add(rng.End.AddDays(1))
	for _, c := range contracts {
		if rng.Contains(c.Date) {
			add(c.Date)
		}
		// Expiring on the last day of the range adds nothing: rng.End + 1 is already there.
		if c.ExpirationDate.AfterOrEqual(rng.Start) && c.ExpirationDate.Before(rng.End) {
			add(c.ExpirationDate.AddDays(1))
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Partition computes the intervals of rng and their effective contracts.
// Candidates are expected to be the active contracts overlapping rng; any
// that do not overlap simply never become effective.
func Partition(rng Period, candidates []Contract) []Interval {
	if rng.IsEmpty() {
		return nil
	}

	ordered := SortByRecency(candidates)
	dates := SignificantDates(rng, candidates)

	intervals := make([]Interval, 0, len(dates)-1)
	for i := 0; i+1 < len(dates); i++ {
		p := Period{Start: dates[i], End: dates[i+1].AddDays(-1)}.Clip(rng)
		if p.IsEmpty() {
			continue
		}
		intervals = append(intervals, Interval{Period: p, Contract: EffectiveContract(p, ordered)})
	}
	return intervals
}

// EffectiveContract returns the first contract in ordered that covers p, or nil.
// ordered must already be sorted with SortByRecency.
func EffectiveContract(p Period, ordered []Contract) *Contract {
	for i := range ordered {
		if ordered[i].Covers(p) {
			c := ordered[i]
			return &c
		}
	}
	return nil
}
