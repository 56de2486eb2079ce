package loan

import "github.com/warp/loan-engine/generic"

// =============================================================================
// ELAPSED-PERIOD CONVERSION
// =============================================================================

// ConvertElapsed converts a count of elapsed loan months into the number of
// occurrences the same span holds under spec.
//
//	weekly every N weeks            floor(months * 4 / N)
//	biweekly, semi-monthly          months * 2
//	monthly family, M months apart  floor(months / M)
//
// Daily and one-shot rules have no conversion and fail with
// ErrUnsupportedFrequency; guessing would misalign the template's instance
// counter.
func ConvertElapsed(months int, spec generic.FrequencySpec) (int, error) {
	if months < 0 {
		return 0, generic.Invalid("elapsed", "must not be negative, got %d", months)
	}
	switch spec.Kind {
	case generic.FrequencyWeekly:
		return months * 4 / spec.WeekMultiplier(), nil
	case generic.FrequencyBiweekly, generic.FrequencySemiMonthly:
		return months * 2, nil
	}
	if m := spec.MonthMultiplier(); m > 0 {
		return months / m, nil
	}
	return 0, &generic.UnsupportedFrequencyError{Kind: spec.Kind, Op: "convert elapsed periods"}
}
