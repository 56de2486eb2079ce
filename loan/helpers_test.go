package loan_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/generic"
	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var oracle = generic.CalendarOracle{}

const (
	checking  generic.AccountID = "Assets:Checking"
	savings   generic.AccountID = "Assets:Savings"
	escrow    generic.AccountID = "Assets:Escrow"
	mortgage  generic.AccountID = "Liabilities:Mortgage"
	interest  generic.AccountID = "Expenses:Interest"
	taxes     generic.AccountID = "Expenses:Taxes"
	insurance generic.AccountID = "Expenses:Insurance"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

// thirtyYear is 200000 at 6% over 30 years, paid monthly from 2025-01-01.
func thirtyYear() loan.LoanConfig {
	start := day(2025, time.January, 1)
	return loan.LoanConfig{
		Name:              "Mortgage",
		Principal:         dec("200000"),
		AnnualRatePercent: dec("6"),
		TermCount:         30,
		TermUnit:          loan.TermYears,
		RemainingPeriods:  360,
		StartDate:         start,
		PaymentFrequency:  generic.Monthly(start, 1, 1),
		FromAccount:       checking,
		PrincipalAccount:  mortgage,
		InterestAccount:   interest,
	}
}

func withEscrow(cfg loan.LoanConfig) loan.LoanConfig {
	cfg.EscrowAccount = escrow
	return cfg
}

func withOptions(cfg loan.LoanConfig, opts ...loan.RepaymentOption) loan.LoanConfig {
	cfg.Options = opts
	return cfg
}

func taxOption(amount string) loan.RepaymentOption {
	return loan.RepaymentOption{
		Name:          "Taxes",
		Memo:          "Tax Payment",
		Enabled:       true,
		Amount:        dec(amount),
		ThroughEscrow: true,
		Destination:   taxes,
	}
}

func insuranceOption(amount string) loan.RepaymentOption {
	return loan.RepaymentOption{
		Name:          "Insurance",
		Memo:          "Insurance Payment",
		Enabled:       true,
		Amount:        dec(amount),
		ThroughEscrow: true,
		Destination:   insurance,
	}
}

func annually(opt loan.RepaymentOption, start generic.TimePoint) loan.RepaymentOption {
	opt.Schedule = &loan.OptionSchedule{Frequency: generic.Annual(start), StartDate: start}
	return opt
}

// splitsFor returns every split touching account across the template's
// bodies.
func splitsFor(st generic.ScheduledTransaction, account generic.AccountID) []generic.TemplateSplit {
	var out []generic.TemplateSplit
	for _, body := range st.Transactions {
		for _, s := range body.Splits {
			if s.Account == account {
				out = append(out, s)
			}
		}
	}
	return out
}
