package loan

import (
	"fmt"

	"github.com/warp/loan-engine/generic"
)

// ReviewRange selects the date range a schedule is reviewed over.
type ReviewRange string

const (
	RangeCurrentYear ReviewRange = "current_year"
	RangeNowPlusOne  ReviewRange = "now_plus_one"
	RangeWholeLoan   ReviewRange = "whole_loan"
	RangeCustom      ReviewRange = "custom"
)

// RangeFor resolves a review range relative to today. custom is only read
// for RangeCustom.
func RangeFor(r ReviewRange, cfg LoanConfig, oracle generic.FrequencyOracle, today generic.TimePoint, custom generic.Period) (generic.Period, error) {
	var p generic.Period
	switch r {
	case RangeCurrentYear, "":
		p = generic.CalendarYear(today)
	case RangeNowPlusOne:
		p = generic.RollingYear(today)
	case RangeWholeLoan:
		if err := cfg.validateSchedule(); err != nil {
			return generic.Period{}, err
		}
		p = generic.Period{Start: cfg.StartDate, End: FinalPaymentDate(cfg, oracle)}
		if p.End.IsZero() {
			return generic.Period{}, generic.Invalid("payment_frequency", "runs out before the final payment")
		}
	case RangeCustom:
		p = custom
	default:
		return generic.Period{}, generic.Invalid("range", "unknown review range %q", r)
	}
	if err := p.Validate(); err != nil {
		return generic.Period{}, fmt.Errorf("%s range: %w", r, err)
	}
	return p, nil
}
