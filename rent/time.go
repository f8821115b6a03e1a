package rent

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day abstraction (contracts and reports are day-granular)
// =============================================================================

// Date is a calendar day in UTC. The zero value is "no date".
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now()) }

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.Time.AddDate(0, 0, n)) }

// Properties
func (d Date) Year() int          { return d.Time.Year() }
func (d Date) Month() time.Month  { return d.Time.Month() }
func (d Date) Day() int           { return d.Time.Day() }
func (d Date) IsZero() bool       { return d.Time.IsZero() }
func (d Date) String() string     { return d.Time.Format(dateLayout) }
func (d Date) StartOfMonth() Date { return StartOfMonth(d.Year(), d.Month()) }
func (d Date) EndOfMonth() Date   { return EndOfMonth(d.Year(), d.Month()) }
func (d Date) DaysInMonth() int   { return d.EndOfMonth().Day() }

func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween returns the number of days from `from` to `to` (negative when to < from).
func DaysBetween(from, to Date) int { return int(to.Time.Sub(from.Time).Hours() / 24) }

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

func EndOfMonth(year int, month time.Month) Date {
	return DateOf(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))
}

// CurrentMonth is the default reporting range: first to last day of today's month.
func CurrentMonth(today Date) Period {
	return Period{Start: today.StartOfMonth(), End: today.EndOfMonth()}
}
