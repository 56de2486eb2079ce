/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Loans:
    LoanRequest, ScheduleRequest, CommitRequest, LoanDTO

  Schedule:
    ScheduleDTO, ScheduleRowDTO

  Templates:
    TemplateDTO, SynthesisDTO, CommitResponse

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

MONEY:
  Amounts are decimal strings with two places ("1199.10"), never floats.
  An empty schedule cell is JSON null; "0.00" is a real zero.

VALIDATION:
  Validation is done in the factory and the loan package, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/loan.go: LoanJSON type
*/
package api

import (
	"github.com/warp/loan-engine/factory"
	"github.com/warp/loan-engine/generic"
	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// LOAN REQUESTS
// =============================================================================

// LoanRequest carries a loan definition.
type LoanRequest struct {
	Loan factory.LoanJSON `json:"loan"`
}

// ScheduleRequest asks for the review table of a loan.
type ScheduleRequest struct {
	Loan  factory.LoanJSON  `json:"loan"`
	Range loan.ReviewRange  `json:"range,omitempty"` // default current_year
	From  generic.TimePoint `json:"from,omitempty"`  // custom range only
	To    generic.TimePoint `json:"to,omitempty"`
	AsOf  generic.TimePoint `json:"as_of,omitempty"` // default today
}

// CommitRequest synthesizes and stores a loan's templates. The
// Idempotency-Key header is used when IdempotencyKey is empty.
type CommitRequest struct {
	Loan           factory.LoanJSON `json:"loan"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

// LoanDTO is a saved loan definition.
type LoanDTO struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Config    factory.LoanJSON `json:"config"`
	Version   int              `json:"version"`
	CreatedAt string           `json:"created_at,omitempty"`
}

// =============================================================================
// SCHEDULE
// =============================================================================

// ScheduleDTO is the review table of a loan.
type ScheduleDTO struct {
	Columns          []string         `json:"columns"`
	Rows             []ScheduleRowDTO `json:"rows"`
	RangeStart       string           `json:"range_start"`
	RangeEnd         string           `json:"range_end"`
	Payment          string           `json:"payment"`
	Elapsed          int              `json:"elapsed"`
	RemainingPeriods int              `json:"remaining_periods"`
	FinalPayment     string           `json:"final_payment,omitempty"`
}

// ScheduleRowDTO is one date of the table. Cells follow Columns.
type ScheduleRowDTO struct {
	Date   string    `json:"date"`
	Period int       `json:"period,omitempty"`
	Cells  []*string `json:"cells"`
}

// =============================================================================
// TEMPLATES
// =============================================================================

// TemplateDTO is a scheduled transaction.
type TemplateDTO struct {
	ID             string                        `json:"id,omitempty"`
	Name           string                        `json:"name"`
	Frequency      generic.FrequencySpec         `json:"frequency"`
	Recurrence     string                        `json:"recurrence"`
	Start          string                        `json:"start"`
	LastOccurred   string                        `json:"last_occurred,omitempty"`
	End            string                        `json:"end,omitempty"`
	InstanceCount  int                           `json:"instance_count"`
	Transactions   []generic.TemplateTransaction `json:"transactions"`
	IdempotencyKey string                        `json:"idempotency_key,omitempty"`
	CreatedAt      string                        `json:"created_at,omitempty"`
}

// SynthesisDTO is the template set of one loan, main template first.
type SynthesisDTO struct {
	Templates []TemplateDTO `json:"templates"`
}

// CommitResponse is returned by a successful commit.
type CommitResponse struct {
	LoanID    string        `json:"loan_id"`
	Templates []TemplateDTO `json:"templates"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toTemplateDTO(st generic.ScheduledTransaction) TemplateDTO {
	return TemplateDTO{
		ID:             string(st.ID),
		Name:           st.Name,
		Frequency:      st.Frequency,
		Recurrence:     st.Frequency.String(),
		Start:          st.Start.String(),
		LastOccurred:   st.LastOccurred.String(),
		End:            st.End.String(),
		InstanceCount:  st.InstanceCount,
		Transactions:   st.Transactions,
		IdempotencyKey: st.IdempotencyKey,
		CreatedAt:      st.CreatedAt.String(),
	}
}

func toTemplateDTOs(sts []generic.ScheduledTransaction) []TemplateDTO {
	dtos := make([]TemplateDTO, len(sts))
	for i, st := range sts {
		dtos[i] = toTemplateDTO(st)
	}
	return dtos
}

func toScheduleRowDTO(row loan.ScheduleRow) ScheduleRowDTO {
	dto := ScheduleRowDTO{
		Date:   row.Date.String(),
		Period: row.Period,
		Cells:  make([]*string, len(row.Cells)),
	}
	for i, c := range row.Cells {
		if c.Valid {
			s := c.Decimal.StringFixed(generic.CurrencyPlaces)
			dto.Cells[i] = &s
		}
	}
	return dto
}
