package generic

// =============================================================================
// PERIOD - A closed date range
// =============================================================================

// Period is the closed date range [Start, End] a schedule is reviewed over.
//
// Examples:
//   - Calendar year 2025: Jan 1 - Dec 31
//   - Rolling year from a date: date - date + 1 year
//   - Whole loan: first payment - final payment
type Period struct {
	Start TimePoint `json:"start"`
	End   TimePoint `json:"end"`
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// IsEmpty reports whether End is before Start.
func (p Period) IsEmpty() bool {
	return p.End.Before(p.Start)
}

func (p Period) Validate() error {
	if p.Start.IsZero() {
		return Invalid("range.start", "required")
	}
	if p.End.IsZero() {
		return Invalid("range.end", "required")
	}
	if p.IsEmpty() {
		return Invalid("range.end", "%s is before start %s", p.End, p.Start)
	}
	return nil
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// CalendarYear returns Jan 1 - Dec 31 of the year containing date.
func CalendarYear(date TimePoint) Period {
	return Period{Start: StartOfYear(date.Year()), End: EndOfYear(date.Year())}
}

// RollingYear returns [date, date + 1 year].
func RollingYear(date TimePoint) Period {
	return Period{Start: date, End: date.AddYears(1)}
}
