package loan

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/generic"
)

// =============================================================================
// AMORTIZATION - Level-payment loan math
// =============================================================================

// workPlaces is the precision intermediate results are kept at. Only final
// amounts are rounded to cents.
const workPlaces = 24

var (
	one     = decimal.NewFromInt(1)
	monthly = decimal.NewFromInt(1200) // percent per year to rate per month
)

// Installment is one period of an amortization table.
type Installment struct {
	Period    int             `json:"period"`
	Payment   decimal.Decimal `json:"payment"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
}

// amortizer holds the values every period shares.
type amortizer struct {
	principal decimal.Decimal
	rate      decimal.Decimal // per period
	periods   int
	payment   decimal.Decimal // unrounded
}

func newAmortizer(cfg LoanConfig) (amortizer, error) {
	if err := cfg.validateTerms(); err != nil {
		return amortizer{}, err
	}
	a := amortizer{
		principal: cfg.Principal,
		rate:      cfg.AnnualRatePercent.DivRound(monthly, workPlaces),
		periods:   cfg.TotalPeriods(),
	}
	if a.rate.IsZero() {
		a.payment = a.principal.DivRound(decimal.NewFromInt(int64(a.periods)), workPlaces)
		return a, nil
	}
	f := pow(one.Add(a.rate), a.periods)
	a.payment = a.principal.Mul(a.rate).Mul(f).DivRound(f.Sub(one), workPlaces)
	return a, nil
}

// interest is the unrounded interest part of period i (1 <= i <= periods).
func (a amortizer) interest(i int) decimal.Decimal {
	if a.rate.IsZero() {
		return decimal.Zero
	}
	// Balance before period i: P*g - pmt*(g-1)/r with g = (1+r)^(i-1)
	g := pow(one.Add(a.rate), i-1)
	balance := a.principal.Mul(g).Sub(a.payment.Mul(g.Sub(one)).DivRound(a.rate, workPlaces))
	return balance.Mul(a.rate)
}

func (a amortizer) installment(i int) (Installment, error) {
	if i <= 0 {
		return Installment{}, generic.Invalid("period", "must be at least 1, got %d", i)
	}
	if i > a.periods {
		return Installment{Period: i}, nil
	}
	interest := a.interest(i)
	return Installment{
		Period:    i,
		Payment:   generic.RoundCurrency(a.payment),
		Principal: generic.RoundCurrency(a.payment.Sub(interest)),
		Interest:  generic.RoundCurrency(interest),
	}, nil
}

// pow raises x to a non-negative integer power by squaring.
func pow(x decimal.Decimal, n int) decimal.Decimal {
	result := one
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(x).Round(workPlaces)
		}
		x = x.Mul(x).Round(workPlaces)
		n >>= 1
	}
	return result
}

// Payment is the level payment per period, rounded to cents.
func Payment(cfg LoanConfig) (decimal.Decimal, error) {
	a, err := newAmortizer(cfg)
	if err != nil {
		return decimal.Zero, err
	}
	return generic.RoundCurrency(a.payment), nil
}

// PrincipalPortion is the part of payment i that repays principal. Periods
// are numbered from 1 at loan inception; past the last period it is zero.
func PrincipalPortion(cfg LoanConfig, i int) (decimal.Decimal, error) {
	inst, err := Amortize(cfg, i)
	return inst.Principal, err
}

// InterestPortion is the part of payment i that pays interest.
func InterestPortion(cfg LoanConfig, i int) (decimal.Decimal, error) {
	inst, err := Amortize(cfg, i)
	return inst.Interest, err
}

// Amortize returns payment, principal and interest of period i together.
func Amortize(cfg LoanConfig, i int) (Installment, error) {
	a, err := newAmortizer(cfg)
	if err != nil {
		return Installment{}, err
	}
	return a.installment(i)
}

// =============================================================================
// FORMULAS - Ledger-evaluated expressions for template splits
// =============================================================================
// The ledger evaluates these on every occurrence with "i" bound to the
// template's instance count, so they stay correct however far into the
// term a template is created.

func formulaArgs(cfg LoanConfig) (rate string, periods int, principal string) {
	return cfg.AnnualRatePercent.DivRound(decimal.NewFromInt(100), workPlaces).StringFixed(5),
		cfg.TotalPeriods(),
		cfg.Principal.StringFixed(generic.CurrencyPlaces)
}

// PaymentFormula renders the level payment, e.g.
// "pmt( 0.06000 / 12 : 360 : 200000.00 : 0 : 0 )".
func PaymentFormula(cfg LoanConfig) string {
	rate, n, p := formulaArgs(cfg)
	return fmt.Sprintf("pmt( %s / 12 : %d : %s : 0 : 0 )", rate, n, p)
}

func PrincipalFormula(cfg LoanConfig) string {
	rate, n, p := formulaArgs(cfg)
	return fmt.Sprintf("ppmt( %s / 12 : i : %d : %s : 0 : 0 )", rate, n, p)
}

func InterestFormula(cfg LoanConfig) string {
	rate, n, p := formulaArgs(cfg)
	return fmt.Sprintf("ipmt( %s / 12 : i : %d : %s : 0 : 0 )", rate, n, p)
}
