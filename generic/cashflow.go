package generic

import "github.com/shopspring/decimal"

// =============================================================================
// CASH FLOW SCHEDULE - Interface for how amounts fall on dates
// =============================================================================

// CashFlowSchedule generates the dated amounts of one source of money
// (a loan payment, a tax bill, an insurance premium) for a time range.
type CashFlowSchedule interface {
	// GenerateFlows returns flow events in [from, to], in date order.
	GenerateFlows(from, to TimePoint) ([]FlowEvent, error)
}

// FlowEvent is a single amount landing in one column of a schedule table.
type FlowEvent struct {
	At     TimePoint
	Column int
	Amount decimal.Decimal

	// Period is the 1-based occurrence index of the flow that produced the
	// event, or 0 when the flow has no notion of periods.
	Period int
}

// FlowFunc adapts a plain function to CashFlowSchedule.
type FlowFunc func(from, to TimePoint) ([]FlowEvent, error)

func (f FlowFunc) GenerateFlows(from, to TimePoint) ([]FlowEvent, error) {
	return f(from, to)
}

// RecurringFlow puts a fixed amount in one column on every occurrence of a
// recurrence rule, from the rule's anchor up to and including Until.
type RecurringFlow struct {
	Oracle    FrequencyOracle
	Frequency FrequencySpec
	Column    int
	Amount    decimal.Decimal
	Until     TimePoint // zero means unbounded
}

func (r RecurringFlow) GenerateFlows(from, to TimePoint) ([]FlowEvent, error) {
	var events []FlowEvent
	amount := RoundCurrency(r.Amount)
	Walk(r.Oracle, r.Frequency, from, func(at TimePoint, _ int) bool {
		if at.After(to) || (!r.Until.IsZero() && at.After(r.Until)) {
			return false
		}
		events = append(events, FlowEvent{At: at, Column: r.Column, Amount: amount})
		return true
	})
	return events, nil
}
