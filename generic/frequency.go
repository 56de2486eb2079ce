package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// FREQUENCY SPEC - Recurrence rule
// =============================================================================

// FrequencyKind names a recurrence family.
type FrequencyKind string

const (
	FrequencyOnce        FrequencyKind = "once"
	FrequencyDaily       FrequencyKind = "daily"
	FrequencyWeekly      FrequencyKind = "weekly"
	FrequencyBiweekly    FrequencyKind = "biweekly"
	FrequencySemiMonthly FrequencyKind = "semi_monthly"
	FrequencyMonthly     FrequencyKind = "monthly"
	FrequencyQuarterly   FrequencyKind = "quarterly"
	FrequencyTriAnnual   FrequencyKind = "tri_annual"
	FrequencySemiAnnual  FrequencyKind = "semi_annual"
	FrequencyAnnual      FrequencyKind = "annual"
)

// baseMonths is the month step of each monthly-family kind.
var baseMonths = map[FrequencyKind]int{
	FrequencyMonthly:    1,
	FrequencyQuarterly:  3,
	FrequencyTriAnnual:  4,
	FrequencySemiAnnual: 6,
	FrequencyAnnual:     12,
}

// FrequencySpec describes when a recurring transaction occurs.
//
// Anchor is the first date the rule may produce; no occurrence is ever
// earlier. Multiplier scales the base step (every N days, N weeks or N
// steps of the monthly family) and defaults to 1. DayOfMonth pins monthly
// family occurrences to a day, clamped to short months; zero means the
// anchor's day. SemiMonthly uses DayOfMonth and SecondDay.
type FrequencySpec struct {
	Kind       FrequencyKind `json:"kind"`
	Anchor     TimePoint     `json:"anchor"`
	Multiplier int           `json:"multiplier,omitempty"`
	Weekday    time.Weekday  `json:"weekday,omitempty"`
	DayOfMonth int           `json:"day_of_month,omitempty"`
	SecondDay  int           `json:"second_day,omitempty"`
}

func Once(at TimePoint) FrequencySpec {
	return FrequencySpec{Kind: FrequencyOnce, Anchor: at}
}

func Daily(anchor TimePoint, every int) FrequencySpec {
	return FrequencySpec{Kind: FrequencyDaily, Anchor: anchor, Multiplier: every}
}

// Weekly occurs every N weeks on the given weekday, starting with the first
// such weekday on or after anchor.
func Weekly(anchor TimePoint, every int, day time.Weekday) FrequencySpec {
	return FrequencySpec{Kind: FrequencyWeekly, Anchor: anchor, Multiplier: every, Weekday: day}
}

// Biweekly occurs every other week on the anchor's weekday.
func Biweekly(anchor TimePoint) FrequencySpec {
	return FrequencySpec{Kind: FrequencyBiweekly, Anchor: anchor, Multiplier: 2, Weekday: anchor.Weekday()}
}

func SemiMonthly(anchor TimePoint, first, second int) FrequencySpec {
	return FrequencySpec{Kind: FrequencySemiMonthly, Anchor: anchor, DayOfMonth: first, SecondDay: second}
}

func Monthly(anchor TimePoint, every int, dayOfMonth int) FrequencySpec {
	return FrequencySpec{Kind: FrequencyMonthly, Anchor: anchor, Multiplier: every, DayOfMonth: dayOfMonth}
}

func Quarterly(anchor TimePoint) FrequencySpec {
	return FrequencySpec{Kind: FrequencyQuarterly, Anchor: anchor}
}

func TriAnnual(anchor TimePoint) FrequencySpec {
	return FrequencySpec{Kind: FrequencyTriAnnual, Anchor: anchor}
}

func SemiAnnual(anchor TimePoint) FrequencySpec {
	return FrequencySpec{Kind: FrequencySemiAnnual, Anchor: anchor}
}

func Annual(anchor TimePoint) FrequencySpec {
	return FrequencySpec{Kind: FrequencyAnnual, Anchor: anchor}
}

// WithAnchor returns a copy of the rule anchored at a different date.
func (f FrequencySpec) WithAnchor(anchor TimePoint) FrequencySpec {
	f.Anchor = anchor
	return f
}

func (f FrequencySpec) multiplier() int {
	if f.Multiplier < 1 {
		return 1
	}
	return f.Multiplier
}

// IsMonthlyFamily reports whether the rule steps in whole months.
func (f FrequencySpec) IsMonthlyFamily() bool {
	_, ok := baseMonths[f.Kind]
	return ok
}

// MonthMultiplier is the number of months between occurrences for the
// monthly family, 0 otherwise.
func (f FrequencySpec) MonthMultiplier() int {
	base, ok := baseMonths[f.Kind]
	if !ok {
		return 0
	}
	return base * f.multiplier()
}

// WeekMultiplier is the number of weeks between occurrences for weekly and
// biweekly rules, 0 otherwise.
func (f FrequencySpec) WeekMultiplier() int {
	switch f.Kind {
	case FrequencyWeekly:
		return f.multiplier()
	case FrequencyBiweekly:
		return 2
	}
	return 0
}

// Validate checks the rule is well formed.
func (f FrequencySpec) Validate() error {
	switch f.Kind {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyBiweekly,
		FrequencySemiMonthly, FrequencyMonthly, FrequencyQuarterly,
		FrequencyTriAnnual, FrequencySemiAnnual, FrequencyAnnual:
	default:
		return Invalid("frequency.kind", "unknown kind %q", f.Kind)
	}
	if f.Anchor.IsZero() {
		return Invalid("frequency.anchor", "required")
	}
	if f.Multiplier < 0 {
		return Invalid("frequency.multiplier", "must not be negative")
	}
	if f.DayOfMonth < 0 || f.DayOfMonth > 31 {
		return Invalid("frequency.day_of_month", "must be between 0 and 31")
	}
	if f.SecondDay < 0 || f.SecondDay > 31 {
		return Invalid("frequency.second_day", "must be between 0 and 31")
	}
	if f.Weekday < time.Sunday || f.Weekday > time.Saturday {
		return Invalid("frequency.weekday", "must be between 0 and 6")
	}
	return nil
}

func (f FrequencySpec) String() string {
	switch {
	case f.Kind == FrequencyWeekly:
		return fmt.Sprintf("every %d week(s) on %s", f.multiplier(), f.Weekday)
	case f.Kind == FrequencySemiMonthly:
		return fmt.Sprintf("semi-monthly on days %d and %d", f.DayOfMonth, f.SecondDay)
	case f.IsMonthlyFamily() && f.DayOfMonth > 0:
		return fmt.Sprintf("every %d month(s) on day %d", f.MonthMultiplier(), f.DayOfMonth)
	case f.IsMonthlyFamily():
		return fmt.Sprintf("every %d month(s)", f.MonthMultiplier())
	}
	return string(f.Kind)
}

// =============================================================================
// FREQUENCY ORACLE - Evaluates recurrence rules
// =============================================================================

// FrequencyOracle returns the first occurrence of spec on or after the given
// date, or the zero TimePoint when the rule has no further occurrences.
//
// Implementations must be deterministic and monotonic: for a fixed spec,
// advancing the input never yields an earlier result.
type FrequencyOracle interface {
	NextOccurrence(spec FrequencySpec, onOrAfter TimePoint) TimePoint
}

// CalendarOracle is the default FrequencyOracle backed by the Gregorian
// calendar.
type CalendarOracle struct{}

var _ FrequencyOracle = CalendarOracle{}

func (CalendarOracle) NextOccurrence(spec FrequencySpec, onOrAfter TimePoint) TimePoint {
	if spec.Anchor.IsZero() {
		return TimePoint{}
	}
	from := onOrAfter
	if from.Before(spec.Anchor) {
		from = spec.Anchor
	}

	switch spec.Kind {
	case FrequencyOnce:
		if spec.Anchor.Before(from) {
			return TimePoint{}
		}
		return spec.Anchor

	case FrequencyDaily:
		return stepDays(spec.Anchor, from, spec.multiplier())

	case FrequencyWeekly, FrequencyBiweekly:
		first := spec.Anchor
		for first.Weekday() != spec.Weekday {
			first = first.AddDays(1)
		}
		if from.Before(first) {
			from = first
		}
		return stepDays(first, from, 7*spec.WeekMultiplier())

	case FrequencySemiMonthly:
		return nextSemiMonthly(spec, from)
	}

	if step := spec.MonthMultiplier(); step > 0 {
		return nextMonthly(spec, from, step)
	}
	return TimePoint{}
}

// stepDays returns the first date first + k*step (k >= 0) on or after from.
func stepDays(first, from TimePoint, step int) TimePoint {
	d := DaysBetween(first, from)
	if d <= 0 {
		return first
	}
	k := (d + step - 1) / step
	return first.AddDays(k * step)
}

// monthDay is day dom of the month offset months after anchor's month,
// clamped to the length of that month.
func monthDay(anchor TimePoint, offset, dom int) TimePoint {
	idx := anchor.Year()*12 + int(anchor.Month()) - 1 + offset
	year, month := idx/12, time.Month(idx%12+1)
	if n := DaysIn(year, month); dom > n {
		dom = n
	}
	return NewTimePoint(year, month, dom)
}

func nextMonthly(spec FrequencySpec, from TimePoint, step int) TimePoint {
	dom := spec.DayOfMonth
	if dom == 0 {
		dom = spec.Anchor.Day()
	}
	k := MonthsBetween(spec.Anchor, from)/step - 1
	if k < 0 {
		k = 0
	}
	for {
		next := monthDay(spec.Anchor, k*step, dom)
		if !next.Before(from) {
			return next
		}
		k++
	}
}

func nextSemiMonthly(spec FrequencySpec, from TimePoint) TimePoint {
	first, second := spec.DayOfMonth, spec.SecondDay
	if first == 0 {
		first = spec.Anchor.Day()
	}
	if second == 0 {
		second = 31
	}
	if second < first {
		first, second = second, first
	}
	offset := MonthsBetween(spec.Anchor, from)
	for {
		for _, dom := range [2]int{first, second} {
			next := monthDay(spec.Anchor, offset, dom)
			if !next.Before(from) {
				return next
			}
		}
		offset++
	}
}

// =============================================================================
// WALKING OCCURRENCES
// =============================================================================

// Walk calls fn with each occurrence of spec on or after from, numbering
// them from 1, until fn returns false or the rule runs out.
func Walk(oracle FrequencyOracle, spec FrequencySpec, from TimePoint, fn func(at TimePoint, n int) bool) {
	next := oracle.NextOccurrence(spec, from)
	for n := 1; !next.IsZero(); n++ {
		if !fn(next, n) {
			return
		}
		following := oracle.NextOccurrence(spec, next.AddDays(1))
		if !following.After(next) {
			return
		}
		next = following
	}
}

// CountBefore counts occurrences of spec on or after from and strictly
// before until.
func CountBefore(oracle FrequencyOracle, spec FrequencySpec, from, until TimePoint) int {
	count := 0
	Walk(oracle, spec, from, func(at TimePoint, _ int) bool {
		if !at.Before(until) {
			return false
		}
		count++
		return true
	})
	return count
}

// LastBefore returns the last occurrence strictly before until, or the zero
// TimePoint if there is none.
func LastBefore(oracle FrequencyOracle, spec FrequencySpec, from, until TimePoint) TimePoint {
	var last TimePoint
	Walk(oracle, spec, from, func(at TimePoint, _ int) bool {
		if !at.Before(until) {
			return false
		}
		last = at
		return true
	})
	return last
}

// NthFrom returns the n-th occurrence (1-based) on or after from, or the
// zero TimePoint if the rule runs out first or n < 1.
func NthFrom(oracle FrequencyOracle, spec FrequencySpec, from TimePoint, n int) TimePoint {
	var found TimePoint
	if n < 1 {
		return found
	}
	Walk(oracle, spec, from, func(at TimePoint, k int) bool {
		if k == n {
			found = at
			return false
		}
		return true
	})
	return found
}
