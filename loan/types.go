// Package loan implements loan repayment planning on top of the generic
// scheduling engine: amortization math, the merged review schedule and the
// synthesis of the recurring transaction templates a ledger stores.
package loan

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/generic"
)

// =============================================================================
// LOAN CONFIGURATION
// =============================================================================

type TermUnit string

const (
	TermMonths TermUnit = "months"
	TermYears  TermUnit = "years"
)

// DefaultName is used when a loan has no name of its own.
const DefaultName = "Loan"

// LoanConfig is a fully populated loan definition. Nothing in this package
// modifies a LoanConfig it is given.
type LoanConfig struct {
	Name              string
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TermCount         int
	TermUnit          TermUnit

	// RemainingPeriods is how many payments are still to be made. A fresh
	// loan has all of them remaining.
	RemainingPeriods int

	// StartDate is the loan's first payment date. RepaymentStart is the
	// first date the generated templates produce; zero means StartDate.
	StartDate      generic.TimePoint
	RepaymentStart generic.TimePoint

	PaymentFrequency generic.FrequencySpec

	PrimaryAccount   generic.AccountID
	FromAccount      generic.AccountID
	PrincipalAccount generic.AccountID
	InterestAccount  generic.AccountID
	EscrowAccount    generic.AccountID // empty means no escrow

	Currency generic.Currency
	Options  []RepaymentOption
}

// RepaymentOption is an extra recurring amount paid alongside the loan,
// such as property tax or insurance.
type RepaymentOption struct {
	Name          string
	Memo          string
	Enabled       bool
	Amount        decimal.Decimal
	ThroughEscrow bool
	Source        generic.AccountID // empty means the loan's from account
	Destination   generic.AccountID

	// Schedule is nil when the option is paid with the main payment.
	Schedule *OptionSchedule
}

// OptionSchedule gives an option its own recurrence, independent of the
// loan's payment frequency.
type OptionSchedule struct {
	Frequency generic.FrequencySpec
	StartDate generic.TimePoint
}

// DisplayName returns the loan name, or DefaultName if it has none.
func (c LoanConfig) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return DefaultName
}

// TotalPeriods is the number of payments over the whole term.
func (c LoanConfig) TotalPeriods() int {
	if c.TermUnit == TermYears {
		return c.TermCount * 12
	}
	return c.TermCount
}

// HasEscrow reports whether payments route through an escrow account.
func (c LoanConfig) HasEscrow() bool {
	return !c.EscrowAccount.IsZero()
}

// ResumeDate is the first date generated templates produce.
func (c LoanConfig) ResumeDate() generic.TimePoint {
	if c.RepaymentStart.IsZero() {
		return c.StartDate
	}
	return c.RepaymentStart
}

// principalAccount falls back to the loan's own liability account.
func (c LoanConfig) principalAccount() generic.AccountID {
	if c.PrincipalAccount.IsZero() {
		return c.PrimaryAccount
	}
	return c.PrincipalAccount
}

func (c LoanConfig) currency() generic.Currency {
	if c.Currency == "" {
		return generic.DefaultCurrency
	}
	return c.Currency
}

// mainFrequency anchors the payment frequency at the loan's start date.
func (c LoanConfig) mainFrequency() generic.FrequencySpec {
	return c.PaymentFrequency.WithAnchor(c.StartDate)
}

// EnabledOptions returns the enabled options in declaration order.
func (c LoanConfig) EnabledOptions() []RepaymentOption {
	var out []RepaymentOption
	for _, opt := range c.Options {
		if opt.Enabled {
			out = append(out, opt)
		}
	}
	return out
}

// =============================================================================
// VALIDATION
// =============================================================================

// validateTerms checks the values the amortization formula depends on.
func (c LoanConfig) validateTerms() error {
	if c.Principal.IsNegative() {
		return generic.Invalid("principal", "must not be negative, got %s", c.Principal)
	}
	if c.AnnualRatePercent.IsNegative() {
		return generic.Invalid("annual_rate_percent", "must not be negative, got %s", c.AnnualRatePercent)
	}
	if c.TermCount <= 0 {
		return generic.Invalid("term_count", "must be positive, got %d", c.TermCount)
	}
	if c.TermUnit != TermMonths && c.TermUnit != TermYears {
		return generic.Invalid("term_unit", "must be %q or %q, got %q", TermMonths, TermYears, c.TermUnit)
	}
	return nil
}

// Validate checks everything BuildSchedule and Synthesize rely on.
// Missing accounts are reported as ErrAccountRequired.
func (c LoanConfig) Validate() error {
	if err := c.validateTerms(); err != nil {
		return err
	}
	if c.RemainingPeriods < 1 || c.RemainingPeriods > c.TotalPeriods() {
		return generic.Invalid("remaining_periods", "must be between 1 and %d, got %d", c.TotalPeriods(), c.RemainingPeriods)
	}
	if c.StartDate.IsZero() {
		return generic.Invalid("start_date", "required")
	}
	if !c.RepaymentStart.IsZero() && c.RepaymentStart.Before(c.StartDate) {
		return generic.Invalid("repayment_start", "%s is before start date %s", c.RepaymentStart, c.StartDate)
	}
	if err := c.mainFrequency().Validate(); err != nil {
		return err
	}

	required := []struct {
		role    string
		account generic.AccountID
	}{
		{"from_account", c.FromAccount},
		{"principal_account", c.principalAccount()},
		{"interest_account", c.InterestAccount},
	}
	for _, r := range required {
		if r.account.IsZero() {
			return &generic.AccountRequiredError{Role: r.role}
		}
	}

	names := make(map[string]bool, len(c.Options))
	for i, opt := range c.Options {
		if names[opt.Name] {
			return generic.Invalid("options", "duplicate option name %q", opt.Name)
		}
		names[opt.Name] = true
		if err := opt.validate(i); err != nil {
			return err
		}
	}
	return nil
}

func (o RepaymentOption) validate(i int) error {
	if strings.TrimSpace(o.Name) == "" {
		return generic.Invalid(optionField(i, "name"), "required")
	}
	if !o.Enabled {
		return nil
	}
	if o.Amount.IsNegative() {
		return generic.Invalid(optionField(i, "amount"), "must not be negative, got %s", o.Amount)
	}
	if o.Destination.IsZero() {
		return &generic.AccountRequiredError{Role: optionField(i, "destination")}
	}
	if o.Schedule != nil {
		if o.Schedule.StartDate.IsZero() {
			return generic.Invalid(optionField(i, "schedule.start_date"), "required")
		}
		if err := o.Schedule.frequency().Validate(); err != nil {
			return err
		}
	}
	return nil
}

func optionField(i int, field string) string {
	return "options[" + strconv.Itoa(i) + "]." + field
}

// frequency anchors the option's recurrence at its start date.
func (s OptionSchedule) frequency() generic.FrequencySpec {
	return s.Frequency.WithAnchor(s.StartDate)
}
