package loan

import (
	"github.com/warp/loan-engine/generic"
)

// =============================================================================
// SCHEDULE - Merged payment table for review
// =============================================================================

// ScheduleRow is one date of a schedule. Cells follow Schedule.Columns; an
// invalid cell means nothing was due in that column on that date.
type ScheduleRow = generic.Row

// Schedule is the review table of a loan over a date range.
type Schedule struct {
	Columns []string          `json:"columns"`
	Rows    []ScheduleRow     `json:"rows"`
	Range   generic.Period    `json:"range"`
	Elapsed int               `json:"elapsed"`
	Final   generic.TimePoint `json:"final_payment"`
}

// BuildSchedule merges the loan payment and every enabled repayment option
// into one date-keyed table over [rangeStart, rangeEnd].
//
// Payment, principal and interest fall on the loan's payment dates, period
// k on the k-th date counted from StartDate. Options without a schedule of
// their own fall on the same dates; the others follow their own frequency
// from their own start date. Nothing is due after the final payment.
//
// Elapsed is the number of payment dates before asOf (zero asOf means
// today).
func BuildSchedule(cfg LoanConfig, oracle generic.FrequencyOracle, rangeStart, rangeEnd, asOf generic.TimePoint) (*Schedule, error) {
	if err := cfg.validateSchedule(); err != nil {
		return nil, err
	}
	a, err := newAmortizer(cfg)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = generic.Today()
	}

	period := generic.Period{Start: rangeStart, End: rangeEnd}
	columns := AssignColumns(cfg.Options)
	final := FinalPaymentDate(cfg, oracle)

	flows := []generic.CashFlowSchedule{mainFlow(cfg, oracle, a)}
	for i, opt := range cfg.Options {
		col := columns.Column(i)
		if col == Unassigned {
			continue
		}
		freq := cfg.mainFrequency()
		if opt.Schedule != nil {
			freq = opt.Schedule.frequency()
		}
		flows = append(flows, generic.RecurringFlow{
			Oracle:    oracle,
			Frequency: freq,
			Column:    col,
			Amount:    opt.Amount,
			Until:     final,
		})
	}

	rows, err := generic.Projector{Columns: columns.Count}.Project(period, flows...)
	if err != nil {
		return nil, err
	}
	return &Schedule{
		Columns: columns.Titles(),
		Rows:    rows,
		Range:   period,
		Elapsed: Elapsed(cfg, oracle, asOf),
		Final:   final,
	}, nil
}

// mainFlow emits payment, principal and interest on each payment date.
func mainFlow(cfg LoanConfig, oracle generic.FrequencyOracle, a amortizer) generic.CashFlowSchedule {
	return generic.FlowFunc(func(from, to generic.TimePoint) ([]generic.FlowEvent, error) {
		var (
			events []generic.FlowEvent
			err    error
		)
		generic.Walk(oracle, cfg.mainFrequency(), cfg.StartDate, func(at generic.TimePoint, k int) bool {
			if k > a.periods || at.After(to) {
				return false
			}
			if at.Before(from) {
				return true
			}
			var inst Installment
			if inst, err = a.installment(k); err != nil {
				return false
			}
			events = append(events,
				generic.FlowEvent{At: at, Column: ColumnPayment, Amount: inst.Payment, Period: k},
				generic.FlowEvent{At: at, Column: ColumnPrincipal, Amount: inst.Principal, Period: k},
				generic.FlowEvent{At: at, Column: ColumnInterest, Amount: inst.Interest, Period: k},
			)
			return true
		})
		return events, err
	})
}

// Elapsed counts payment dates on or after StartDate and strictly before
// asOf.
func Elapsed(cfg LoanConfig, oracle generic.FrequencyOracle, asOf generic.TimePoint) int {
	return generic.CountBefore(oracle, cfg.mainFrequency(), cfg.StartDate, asOf)
}

// RemainingPeriods is the number of payments still due as of asOf.
func RemainingPeriods(cfg LoanConfig, oracle generic.FrequencyOracle, asOf generic.TimePoint) (int, error) {
	if err := cfg.validateTerms(); err != nil {
		return 0, err
	}
	remaining := cfg.TotalPeriods() - Elapsed(cfg, oracle, asOf)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// FinalPaymentDate is the date of the last payment over the whole term, or
// the zero TimePoint if the payment frequency runs out first.
func FinalPaymentDate(cfg LoanConfig, oracle generic.FrequencyOracle) generic.TimePoint {
	return generic.NthFrom(oracle, cfg.mainFrequency(), cfg.StartDate, cfg.TotalPeriods())
}

// validateSchedule checks what a review table needs. Accounts are not
// required to preview a loan.
func (c LoanConfig) validateSchedule() error {
	if err := c.validateTerms(); err != nil {
		return err
	}
	if c.StartDate.IsZero() {
		return generic.Invalid("start_date", "required")
	}
	if err := c.mainFrequency().Validate(); err != nil {
		return err
	}
	for i, opt := range c.Options {
		if !opt.Enabled || opt.Schedule == nil {
			continue
		}
		if opt.Schedule.StartDate.IsZero() {
			return generic.Invalid(optionField(i, "schedule.start_date"), "required")
		}
		if err := opt.Schedule.frequency().Validate(); err != nil {
			return err
		}
	}
	return nil
}
