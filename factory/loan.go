/*
Package factory provides JSON to Go loan conversion.

PURPOSE:
  Converts JSON loan definitions into loan.LoanConfig values. This is how
  loans reach the engine from the HTTP API, the CLI and stored scenario
  files: a finished loan definition as a document, validated once here.

JSON SCHEMA:
  {
    "name": "Mortgage",
    "principal": "200000",
    "annual_rate_percent": "6.0",
    "term_count": 30,
    "term_unit": "years",
    "remaining_periods": 360,
    "start_date": "2025-01-01",
    "repayment_start": "2025-01-01",
    "frequency": {"kind": "monthly", "every": 1, "day_of_month": 1},
    "accounts": {
      "primary": "Liabilities:Mortgage",
      "from": "Assets:Checking",
      "principal": "Liabilities:Mortgage",
      "interest": "Expenses:Interest",
      "escrow": "Assets:Escrow"
    },
    "options": [
      {
        "name": "Taxes",
        "amount": "2400",
        "through_escrow": true,
        "destination": "Expenses:Taxes",
        "frequency": {"kind": "annual"},
        "start_date": "2025-03-15"
      }
    ]
  }

KEY FEATURES:
  - Amounts are decimal strings (numbers are accepted too)
  - Frequencies are anchored at the date they belong to; anchors are never
    written in JSON
  - remaining_periods defaults to the whole term
  - Options default to enabled and take their memo from the preset of the
    same name
  - Errors name the offending JSON field

USAGE:
  f := factory.NewLoanFactory()
  cfg, err := f.ParseLoan(jsonString)
  syn, err := loan.Synthesize(cfg, generic.CalendarOracle{})

SEE ALSO:
  - loan/types.go: LoanConfig type definition
  - api/scenarios.go: Demo loans defined through this factory
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/generic"
	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// LoanJSON is the JSON representation of a loan.
type LoanJSON struct {
	Name              string            `json:"name,omitempty"`
	Principal         decimal.Decimal   `json:"principal"`
	AnnualRatePercent decimal.Decimal   `json:"annual_rate_percent"`
	TermCount         int               `json:"term_count"`
	TermUnit          string            `json:"term_unit"`
	RemainingPeriods  *int              `json:"remaining_periods,omitempty"`
	StartDate         generic.TimePoint `json:"start_date"`
	RepaymentStart    generic.TimePoint `json:"repayment_start,omitempty"`
	Frequency         *FrequencyJSON    `json:"frequency,omitempty"`
	Accounts          AccountsJSON      `json:"accounts"`
	Currency          string            `json:"currency,omitempty"`
	Options           []OptionJSON      `json:"options,omitempty"`
}

// FrequencyJSON represents a recurrence rule without its anchor.
type FrequencyJSON struct {
	Kind       string `json:"kind"`
	Every      int    `json:"every,omitempty"`
	Weekday    string `json:"weekday,omitempty"`
	DayOfMonth int    `json:"day_of_month,omitempty"`
	SecondDay  int    `json:"second_day,omitempty"`
}

// AccountsJSON names the ledger accounts a loan touches.
type AccountsJSON struct {
	Primary   string `json:"primary,omitempty"`
	From      string `json:"from"`
	Principal string `json:"principal,omitempty"` // defaults to primary
	Interest  string `json:"interest"`
	Escrow    string `json:"escrow,omitempty"`
}

// OptionJSON represents a repayment option.
type OptionJSON struct {
	Name          string            `json:"name"`
	Memo          string            `json:"memo,omitempty"`
	Enabled       *bool             `json:"enabled,omitempty"` // default true
	Amount        decimal.Decimal   `json:"amount"`
	ThroughEscrow bool              `json:"through_escrow,omitempty"`
	Source        string            `json:"source,omitempty"`
	Destination   string            `json:"destination"`
	Frequency     *FrequencyJSON    `json:"frequency,omitempty"`
	StartDate     generic.TimePoint `json:"start_date,omitempty"`
}

// =============================================================================
// LOAN FACTORY
// =============================================================================

// LoanFactory converts JSON loans to Go structs.
type LoanFactory struct{}

// NewLoanFactory creates a new loan factory.
func NewLoanFactory() *LoanFactory {
	return &LoanFactory{}
}

// ParseLoan parses a JSON string into a LoanConfig.
func (f *LoanFactory) ParseLoan(jsonStr string) (loan.LoanConfig, error) {
	var lj LoanJSON
	if err := json.Unmarshal([]byte(jsonStr), &lj); err != nil {
		return loan.LoanConfig{}, generic.Invalid("loan", "invalid JSON: %v", err)
	}
	return f.FromJSON(lj)
}

// FromJSON converts a LoanJSON to a LoanConfig. The result has not been
// through LoanConfig.Validate; the engine does that.
func (f *LoanFactory) FromJSON(lj LoanJSON) (loan.LoanConfig, error) {
	unit, err := parseTermUnit(lj.TermUnit)
	if err != nil {
		return loan.LoanConfig{}, err
	}
	if lj.StartDate.IsZero() {
		return loan.LoanConfig{}, generic.Invalid("start_date", "required")
	}

	freq := generic.Monthly(lj.StartDate, 1, lj.StartDate.Day())
	if lj.Frequency != nil {
		if freq, err = parseFrequency("frequency", *lj.Frequency, lj.StartDate); err != nil {
			return loan.LoanConfig{}, err
		}
	}

	cfg := loan.LoanConfig{
		Name:              lj.Name,
		Principal:         lj.Principal,
		AnnualRatePercent: lj.AnnualRatePercent,
		TermCount:         lj.TermCount,
		TermUnit:          unit,
		StartDate:         lj.StartDate,
		RepaymentStart:    lj.RepaymentStart,
		PaymentFrequency:  freq,
		PrimaryAccount:    generic.AccountID(lj.Accounts.Primary),
		FromAccount:       generic.AccountID(lj.Accounts.From),
		PrincipalAccount:  generic.AccountID(lj.Accounts.Principal),
		InterestAccount:   generic.AccountID(lj.Accounts.Interest),
		EscrowAccount:     generic.AccountID(lj.Accounts.Escrow),
		Currency:          generic.Currency(strings.ToUpper(lj.Currency)),
	}
	cfg.RemainingPeriods = cfg.TotalPeriods()
	if lj.RemainingPeriods != nil {
		cfg.RemainingPeriods = *lj.RemainingPeriods
	}

	presets := make(map[string]loan.RepaymentOption)
	for _, p := range loan.DefaultOptions() {
		presets[p.Name] = p
	}
	for i, oj := range lj.Options {
		opt, err := parseOption(i, oj, presets)
		if err != nil {
			return loan.LoanConfig{}, err
		}
		cfg.Options = append(cfg.Options, opt)
	}
	return cfg, nil
}

// ToJSON converts a LoanConfig back to its JSON form.
func (f *LoanFactory) ToJSON(cfg loan.LoanConfig) LoanJSON {
	remaining := cfg.RemainingPeriods
	freq := frequencyToJSON(cfg.PaymentFrequency)
	lj := LoanJSON{
		Name:              cfg.Name,
		Principal:         cfg.Principal,
		AnnualRatePercent: cfg.AnnualRatePercent,
		TermCount:         cfg.TermCount,
		TermUnit:          string(cfg.TermUnit),
		RemainingPeriods:  &remaining,
		StartDate:         cfg.StartDate,
		RepaymentStart:    cfg.RepaymentStart,
		Frequency:         &freq,
		Accounts: AccountsJSON{
			Primary:   string(cfg.PrimaryAccount),
			From:      string(cfg.FromAccount),
			Principal: string(cfg.PrincipalAccount),
			Interest:  string(cfg.InterestAccount),
			Escrow:    string(cfg.EscrowAccount),
		},
		Currency: string(cfg.Currency),
	}
	for _, opt := range cfg.Options {
		enabled := opt.Enabled
		oj := OptionJSON{
			Name:          opt.Name,
			Memo:          opt.Memo,
			Enabled:       &enabled,
			Amount:        opt.Amount,
			ThroughEscrow: opt.ThroughEscrow,
			Source:        string(opt.Source),
			Destination:   string(opt.Destination),
		}
		if opt.Schedule != nil {
			of := frequencyToJSON(opt.Schedule.Frequency)
			oj.Frequency = &of
			oj.StartDate = opt.Schedule.StartDate
		}
		lj.Options = append(lj.Options, oj)
	}
	return lj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseTermUnit(s string) (loan.TermUnit, error) {
	switch strings.ToLower(s) {
	case "months", "month":
		return loan.TermMonths, nil
	case "years", "year":
		return loan.TermYears, nil
	}
	return "", generic.Invalid("term_unit", "must be months or years, got %q", s)
}

func parseOption(i int, oj OptionJSON, presets map[string]loan.RepaymentOption) (loan.RepaymentOption, error) {
	field := func(name string) string { return fmt.Sprintf("options[%d].%s", i, name) }

	opt := loan.RepaymentOption{
		Name:          oj.Name,
		Memo:          oj.Memo,
		Enabled:       oj.Enabled == nil || *oj.Enabled,
		Amount:        oj.Amount,
		ThroughEscrow: oj.ThroughEscrow,
		Source:        generic.AccountID(oj.Source),
		Destination:   generic.AccountID(oj.Destination),
	}
	if opt.Memo == "" {
		if p, ok := presets[opt.Name]; ok {
			opt.Memo = p.Memo
		} else {
			opt.Memo = opt.Name
		}
	}

	switch {
	case oj.Frequency == nil && oj.StartDate.IsZero():
	case oj.Frequency == nil:
		return opt, generic.Invalid(field("frequency"), "required with start_date")
	case oj.StartDate.IsZero():
		return opt, generic.Invalid(field("start_date"), "required with frequency")
	default:
		freq, err := parseFrequency(field("frequency"), *oj.Frequency, oj.StartDate)
		if err != nil {
			return opt, err
		}
		opt.Schedule = &loan.OptionSchedule{Frequency: freq, StartDate: oj.StartDate}
	}
	return opt, nil
}

var kinds = map[string]generic.FrequencyKind{
	"once":         generic.FrequencyOnce,
	"daily":        generic.FrequencyDaily,
	"weekly":       generic.FrequencyWeekly,
	"biweekly":     generic.FrequencyBiweekly,
	"semi_monthly": generic.FrequencySemiMonthly,
	"monthly":      generic.FrequencyMonthly,
	"quarterly":    generic.FrequencyQuarterly,
	"tri_annual":   generic.FrequencyTriAnnual,
	"semi_annual":  generic.FrequencySemiAnnual,
	"annual":       generic.FrequencyAnnual,
	"yearly":       generic.FrequencyAnnual,
}

func parseFrequency(field string, fj FrequencyJSON, anchor generic.TimePoint) (generic.FrequencySpec, error) {
	kind, ok := kinds[strings.ToLower(fj.Kind)]
	if !ok {
		return generic.FrequencySpec{}, generic.Invalid(field+".kind", "unknown frequency %q", fj.Kind)
	}
	spec := generic.FrequencySpec{
		Kind:       kind,
		Anchor:     anchor,
		Multiplier: fj.Every,
		DayOfMonth: fj.DayOfMonth,
		SecondDay:  fj.SecondDay,
	}
	switch kind {
	case generic.FrequencyWeekly:
		spec.Weekday = anchor.Weekday()
		if fj.Weekday != "" {
			wd, err := parseWeekday(fj.Weekday)
			if err != nil {
				return generic.FrequencySpec{}, generic.Invalid(field+".weekday", "%v", err)
			}
			spec.Weekday = wd
		}
	case generic.FrequencyBiweekly:
		spec = generic.Biweekly(anchor)
	}
	if err := spec.Validate(); err != nil {
		return generic.FrequencySpec{}, fmt.Errorf("%s: %w", field, err)
	}
	return spec, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) || strings.EqualFold(s, d.String()[:3]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

func frequencyToJSON(spec generic.FrequencySpec) FrequencyJSON {
	fj := FrequencyJSON{
		Kind:       string(spec.Kind),
		Every:      spec.Multiplier,
		DayOfMonth: spec.DayOfMonth,
		SecondDay:  spec.SecondDay,
	}
	if spec.Kind == generic.FrequencyWeekly {
		fj.Weekday = strings.ToLower(spec.Weekday.String())
	}
	return fj
}
