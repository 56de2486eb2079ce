/*
Package generic provides the domain-agnostic scheduling engine.

PURPOSE:
  This package contains the building blocks every recurring-payment plan
  needs regardless of what is being repaid: calendar days, recurrence rules,
  cash-flow tables and the scheduled-transaction templates that a ledger
  stores. The loan package layers amortization math and escrow routing on
  top of these types.

KEY CONCEPTS IN THIS FILE (types.go):
  - AccountID / TemplateID: Type-safe identifiers
  - Formula: A split amount, symbolic part plus accumulated literal amounts
  - ScheduledTransaction: A recurring transaction template (name, recurrence,
    dates, instance counter, one or more template transactions)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal, never float64, for money
  2. Values: Templates are plain values; building them has no side effects
  3. Type Safety: Strong typing for IDs prevents mixing accounts and templates
  4. Deferred rendering: Formula text is produced once, from typed totals

USAGE:
  f := generic.Expr("pmt( 0.06000 / 12 : 360 : 200000.00 : 0 : 0 )")
  f = f.Add(decimal.RequireFromString("150"))
  f.String() // "pmt( 0.06000 / 12 : 360 : 200000.00 : 0 : 0 ) + 150.00"

SEE ALSO:
  - frequency.go: Recurrence rules and the FrequencyOracle
  - ledger.go: Append-only sink for ScheduledTransactions
  - projection.go: Date-keyed cash-flow tables
*/
package generic

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNTS
// =============================================================================

// CurrencyPlaces is the precision every displayed or stored amount is
// rounded to.
const CurrencyPlaces = 2

// RoundCurrency rounds half away from zero to cents. For the non-negative
// amounts a loan produces this is round-half-up.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

type Currency string

const DefaultCurrency Currency = "USD"

// =============================================================================
// IDENTIFIERS
// =============================================================================

// AccountID is an opaque ledger account handle. The engine only compares
// account identities; it never looks inside an account.
type AccountID string

type TemplateID string

func (a AccountID) IsZero() bool { return a == "" }

// =============================================================================
// FORMULA - Split amount as symbolic expression + literal total
// =============================================================================

// Formula is the amount of one side (debit or credit) of a template split.
//
// A formula has any number of symbolic expressions evaluated by the ledger
// on each occurrence (e.g. "ppmt( ... : i : ... )") plus any number of
// literal amounts. Literals are summed as decimals while the template is
// built and rendered once, so the result does not depend on the order in
// which repayment options were merged in. Expressions keep their order.
type Formula struct {
	Exprs   []string
	Literal decimal.Decimal
	terms   int
}

// Expr returns a formula holding only a symbolic expression.
func Expr(expr string) Formula {
	return Formula{Exprs: []string{expr}}
}

// Literal returns a formula holding one literal amount.
func Literal(d decimal.Decimal) Formula {
	return Formula{}.Add(d)
}

// Add accumulates a literal amount.
func (f Formula) Add(d decimal.Decimal) Formula {
	f.Literal = f.Literal.Add(RoundCurrency(d))
	f.terms++
	return f
}

// Plus returns the sum of f and other: other's expressions are appended
// after f's and its literal total is accumulated into f's.
func (f Formula) Plus(other Formula) Formula {
	if len(other.Exprs) > 0 {
		f.Exprs = append(append([]string(nil), f.Exprs...), other.Exprs...)
	}
	if other.terms > 0 {
		f.Literal = f.Literal.Add(other.Literal)
		f.terms += other.terms
	}
	return f
}

// IsEmpty reports whether nothing has been put on this side of the split.
func (f Formula) IsEmpty() bool { return len(f.Exprs) == 0 && f.terms == 0 }

// Terms is the number of literal amounts accumulated so far.
func (f Formula) Terms() int { return f.terms }

func (f Formula) String() string {
	parts := append([]string(nil), f.Exprs...)
	if f.terms > 0 {
		parts = append(parts, f.Literal.StringFixed(CurrencyPlaces))
	}
	return strings.Join(parts, " + ")
}

// MarshalText renders the formula for JSON and storage.
func (f Formula) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ParseFormula reverses String for formulas this package rendered: the
// " + " separated terms are expressions, except a trailing plain decimal,
// which is the literal.
func ParseFormula(s string) Formula {
	s = strings.TrimSpace(s)
	if s == "" {
		return Formula{}
	}
	terms := strings.Split(s, " + ")
	var f Formula
	if d, err := decimal.NewFromString(strings.TrimSpace(terms[len(terms)-1])); err == nil {
		f = Literal(d)
		terms = terms[:len(terms)-1]
	}
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			f.Exprs = append(f.Exprs, t)
		}
	}
	return f
}

func (f *Formula) UnmarshalText(data []byte) error {
	*f = ParseFormula(string(data))
	return nil
}

// =============================================================================
// SCHEDULED TRANSACTION - Recurring transaction template
// =============================================================================

// TemplateSplit is one leg of a template transaction.
type TemplateSplit struct {
	Account AccountID `json:"account"`
	Memo    string    `json:"memo,omitempty"`
	Debit   Formula   `json:"debit"`
	Credit  Formula   `json:"credit"`
}

// TemplateTransaction is one transaction body produced on every occurrence.
type TemplateTransaction struct {
	Description string          `json:"description"`
	Currency    Currency        `json:"currency"`
	Splits      []TemplateSplit `json:"splits"`
}

// ScheduledTransaction is a recurring transaction definition.
//
// InstanceCount is the sequence number the next generated occurrence
// receives. Formulas that reference the period variable "i" evaluate with
// it, which is how a loan that is already partway through its term
// continues instead of restarting at period 1.
type ScheduledTransaction struct {
	ID             TemplateID
	Name           string
	Frequency      FrequencySpec
	Start          TimePoint
	LastOccurred   TimePoint // zero if nothing has occurred yet
	End            TimePoint
	InstanceCount  int
	Transactions   []TemplateTransaction
	IdempotencyKey string
	CreatedAt      TimePoint
}
