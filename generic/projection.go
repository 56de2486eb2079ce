/*
projection.go - Date-keyed cash-flow table

PURPOSE:
  Merges any number of independently scheduled cash flows into one table
  with a row per calendar date and a fixed column per flow source. This is
  what a person reviews before committing a repayment plan.

KEY INSIGHT:
  A cell that no flow touched is not the same as a cell holding zero. A
  zero-interest period is a real amount; "the tax bill did not fall on this
  date" is the absence of one. Cells are decimal.NullDecimal so the two
  stay distinguishable all the way to the caller.

MERGE PROCESS:
  1. Ask every CashFlowSchedule for its events in [Start, End]
  2. Upsert a row per event date (new rows start with every cell empty)
  3. Set the event's column; a second event on the same cell adds to it
  4. Sort rows by date ascending

  Rows live in a map keyed by TimePoint. TimePoint is a comparable value so
  two flows landing on the same day always share one row.

EXAMPLE:
  p := generic.Projector{Columns: 4}
  rows, _ := p.Project(year2025, mainPayment, taxes)

SEE ALSO:
  - cashflow.go: CashFlowSchedule interface
  - loan/schedule.go: Builds the flows for a loan
*/
package generic

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PROJECTOR - Merges cash flows into date-ordered rows
// =============================================================================

// Row is one calendar date of a projected table.
type Row struct {
	Date TimePoint `json:"date"`

	// Period is the largest period index any event on this date carried,
	// 0 if none did.
	Period int `json:"period,omitempty"`

	Cells []decimal.NullDecimal `json:"cells"`
}

// Cell returns the amount in column c and whether the column has one.
func (r Row) Cell(c int) (decimal.Decimal, bool) {
	if c < 0 || c >= len(r.Cells) || !r.Cells[c].Valid {
		return decimal.Zero, false
	}
	return r.Cells[c].Decimal, true
}

// Projector builds tables with a fixed number of columns.
type Projector struct {
	Columns int
}

// Project merges the events of all flows that fall inside period.
func (p Projector) Project(period Period, flows ...CashFlowSchedule) ([]Row, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	rows := make(map[TimePoint]*Row)
	for _, flow := range flows {
		events, err := flow.GenerateFlows(period.Start, period.End)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			if !period.Contains(e.At) {
				continue
			}
			if e.Column < 0 || e.Column >= p.Columns {
				return nil, fmt.Errorf("flow event on %s: column %d outside [0, %d)", e.At, e.Column, p.Columns)
			}
			row, ok := rows[e.At]
			if !ok {
				row = &Row{Date: e.At, Cells: make([]decimal.NullDecimal, p.Columns)}
				rows[e.At] = row
			}
			cell := &row.Cells[e.Column]
			if cell.Valid {
				cell.Decimal = cell.Decimal.Add(e.Amount)
			} else {
				*cell = decimal.NewNullDecimal(e.Amount)
			}
			if e.Period > row.Period {
				row.Period = e.Period
			}
		}
	}

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
