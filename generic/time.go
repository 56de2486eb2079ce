package generic

import (
	"time"

	"cloud.google.com/go/civil"
)

// =============================================================================
// TIME POINT - Calendar day, comparable with == and usable as a map key
// =============================================================================

// TimePoint is a calendar day. Loan schedules never need a time of day, so
// the value carries no location and no clock reading; two TimePoints for the
// same day are always ==. The zero value means "no date".
type TimePoint struct {
	Date civil.Date
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime truncates t to its calendar day in t's own location.
func FromTime(t time.Time) TimePoint {
	return TimePoint{Date: civil.DateOf(t)}
}

// ParseTimePoint parses an ISO "2006-01-02" date.
func ParseTimePoint(s string) (TimePoint, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return TimePoint{}, err
	}
	return TimePoint{Date: d}, nil
}

// MustParseTimePoint is ParseTimePoint for literals known to be valid.
func MustParseTimePoint(s string) TimePoint {
	tp, err := ParseTimePoint(s)
	if err != nil {
		panic(err)
	}
	return tp
}

func Today() TimePoint {
	return FromTime(time.Now())
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Date.Before(other.Date) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp == other }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Date.After(other.Date) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Date: tp.Date.AddDays(n)} }
func (tp TimePoint) AddYears(n int) TimePoint { return FromTime(tp.Time().AddDate(n, 0, 0)) }

// Properties
func (tp TimePoint) Year() int             { return tp.Date.Year }
func (tp TimePoint) Month() time.Month     { return tp.Date.Month }
func (tp TimePoint) Day() int              { return tp.Date.Day }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time().Weekday() }
func (tp TimePoint) IsZero() bool          { return tp == TimePoint{} }

// Time returns midnight UTC of the day.
func (tp TimePoint) Time() time.Time { return tp.Date.In(time.UTC) }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.Date.String()
}

// MarshalText and UnmarshalText let TimePoint travel as "2006-01-02" in JSON.
func (tp TimePoint) MarshalText() ([]byte, error) {
	return []byte(tp.String()), nil
}

func (tp *TimePoint) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*tp = TimePoint{}
		return nil
	}
	parsed, err := ParseTimePoint(string(data))
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to TimePoint) int { return to.Date.DaysSince(from.Date) }
func StartOfYear(year int) TimePoint     { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint       { return NewTimePoint(year, time.December, 31) }
func EndOfMonth(year int, month time.Month) TimePoint {
	return FromTime(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return EndOfMonth(year, month).Day()
}

// MonthsBetween counts whole calendar months from a's month to b's month,
// ignoring the day of month.
func MonthsBetween(a, b TimePoint) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
