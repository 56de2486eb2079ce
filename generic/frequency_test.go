package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-engine/generic"
)

func day(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

// occurrences collects the first n occurrences of spec on or after from.
func occurrences(spec generic.FrequencySpec, from generic.TimePoint, n int) []generic.TimePoint {
	var out []generic.TimePoint
	generic.Walk(generic.CalendarOracle{}, spec, from, func(at generic.TimePoint, k int) bool {
		out = append(out, at)
		return k < n
	})
	return out
}

func TestCalendarOracle_Monthly_ClampsToMonthEnd(t *testing.T) {
	spec := generic.Monthly(day(2025, time.January, 31), 1, 0)

	got := occurrences(spec, spec.Anchor, 4)

	assert.Equal(t, []generic.TimePoint{
		day(2025, time.January, 31),
		day(2025, time.February, 28),
		day(2025, time.March, 31),
		day(2025, time.April, 30),
	}, got)
}

func TestCalendarOracle_Monthly_NeverBeforeAnchor(t *testing.T) {
	// Day 1 of the anchor's month is before the anchor, so February is first.
	spec := generic.Monthly(day(2025, time.January, 15), 1, 1)

	next := generic.CalendarOracle{}.NextOccurrence(spec, day(2024, time.June, 1))

	assert.Equal(t, day(2025, time.February, 1), next)
}

func TestCalendarOracle_Quarterly(t *testing.T) {
	spec := generic.Quarterly(day(2025, time.January, 15))

	got := occurrences(spec, day(2025, time.February, 1), 3)

	assert.Equal(t, []generic.TimePoint{
		day(2025, time.April, 15),
		day(2025, time.July, 15),
		day(2025, time.October, 15),
	}, got)
}

func TestCalendarOracle_Weekly_AlignsToWeekday(t *testing.T) {
	// 2025-01-01 is a Wednesday
	spec := generic.Weekly(day(2025, time.January, 1), 2, time.Friday)

	got := occurrences(spec, spec.Anchor, 3)

	assert.Equal(t, []generic.TimePoint{
		day(2025, time.January, 3),
		day(2025, time.January, 17),
		day(2025, time.January, 31),
	}, got)
}

func TestCalendarOracle_Biweekly_UsesAnchorWeekday(t *testing.T) {
	spec := generic.Biweekly(day(2025, time.January, 1))

	got := occurrences(spec, day(2025, time.January, 2), 2)

	assert.Equal(t, []generic.TimePoint{
		day(2025, time.January, 15),
		day(2025, time.January, 29),
	}, got)
}

func TestCalendarOracle_SemiMonthly(t *testing.T) {
	spec := generic.SemiMonthly(day(2025, time.January, 10), 1, 15)

	got := occurrences(spec, spec.Anchor, 3)

	assert.Equal(t, []generic.TimePoint{
		day(2025, time.January, 15),
		day(2025, time.February, 1),
		day(2025, time.February, 15),
	}, got)
}

func TestCalendarOracle_Daily(t *testing.T) {
	spec := generic.Daily(day(2025, time.January, 1), 3)

	next := generic.CalendarOracle{}.NextOccurrence(spec, day(2025, time.January, 5))

	assert.Equal(t, day(2025, time.January, 7), next)
}

func TestCalendarOracle_Once_RunsOut(t *testing.T) {
	spec := generic.Once(day(2025, time.March, 1))
	oracle := generic.CalendarOracle{}

	assert.Equal(t, day(2025, time.March, 1), oracle.NextOccurrence(spec, day(2025, time.January, 1)))
	assert.True(t, oracle.NextOccurrence(spec, day(2025, time.March, 2)).IsZero())
	assert.Len(t, occurrences(spec, spec.Anchor, 10), 1)
}

func TestCalendarOracle_Monotonic(t *testing.T) {
	specs := []generic.FrequencySpec{
		generic.Monthly(day(2024, time.January, 31), 1, 0),
		generic.SemiMonthly(day(2024, time.January, 1), 15, 30),
		generic.Weekly(day(2024, time.January, 1), 1, time.Monday),
		generic.Annual(day(2024, time.February, 29)),
	}
	for _, spec := range specs {
		t.Run(spec.String(), func(t *testing.T) {
			got := occurrences(spec, spec.Anchor, 40)
			require.Len(t, got, 40)
			for i := 1; i < len(got); i++ {
				assert.True(t, got[i].After(got[i-1]), "%s not after %s", got[i], got[i-1])
			}
		})
	}
}

func TestCountBefore_ExcludesBoundary(t *testing.T) {
	spec := generic.Monthly(day(2025, time.January, 1), 1, 1)
	oracle := generic.CalendarOracle{}

	assert.Equal(t, 5, generic.CountBefore(oracle, spec, spec.Anchor, day(2025, time.June, 1)))
	assert.Equal(t, 6, generic.CountBefore(oracle, spec, spec.Anchor, day(2025, time.June, 2)))
	assert.Equal(t, 0, generic.CountBefore(oracle, spec, spec.Anchor, spec.Anchor))
}

func TestLastBeforeAndNthFrom(t *testing.T) {
	spec := generic.Monthly(day(2025, time.January, 1), 1, 1)
	oracle := generic.CalendarOracle{}

	assert.Equal(t, day(2025, time.May, 1), generic.LastBefore(oracle, spec, spec.Anchor, day(2025, time.June, 1)))
	assert.True(t, generic.LastBefore(oracle, spec, spec.Anchor, spec.Anchor).IsZero())
	assert.Equal(t, day(2025, time.March, 1), generic.NthFrom(oracle, spec, spec.Anchor, 3))
	assert.True(t, generic.NthFrom(oracle, spec, spec.Anchor, 0).IsZero())
}

func TestFrequencySpec_Multipliers(t *testing.T) {
	anchor := day(2025, time.January, 1)

	assert.Equal(t, 1, generic.Monthly(anchor, 0, 1).MonthMultiplier())
	assert.Equal(t, 2, generic.Monthly(anchor, 2, 1).MonthMultiplier())
	assert.Equal(t, 3, generic.Quarterly(anchor).MonthMultiplier())
	assert.Equal(t, 4, generic.TriAnnual(anchor).MonthMultiplier())
	assert.Equal(t, 6, generic.SemiAnnual(anchor).MonthMultiplier())
	assert.Equal(t, 12, generic.Annual(anchor).MonthMultiplier())
	assert.Equal(t, 0, generic.Weekly(anchor, 1, time.Monday).MonthMultiplier())

	assert.Equal(t, 3, generic.Weekly(anchor, 3, time.Monday).WeekMultiplier())
	assert.Equal(t, 2, generic.Biweekly(anchor).WeekMultiplier())
	assert.Equal(t, 0, generic.Annual(anchor).WeekMultiplier())
}

func TestFrequencySpec_Validate(t *testing.T) {
	anchor := day(2025, time.January, 1)

	require.NoError(t, generic.Monthly(anchor, 1, 31).Validate())

	err := generic.FrequencySpec{Kind: "fortnightly", Anchor: anchor}.Validate()
	assert.ErrorIs(t, err, generic.ErrInvalidArgument)

	err = generic.Monthly(generic.TimePoint{}, 1, 1).Validate()
	assert.ErrorIs(t, err, generic.ErrInvalidArgument)

	err = generic.Monthly(anchor, 1, 32).Validate()
	var argErr *generic.InvalidArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "frequency.day_of_month", argErr.Field)
}
