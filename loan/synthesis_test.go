package loan_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-engine/generic"
	"github.com/warp/loan-engine/loan"
)

const (
	pmt  = "pmt( 0.06000 / 12 : 360 : 200000.00 : 0 : 0 )"
	ppmt = "ppmt( 0.06000 / 12 : i : 360 : 200000.00 : 0 : 0 )"
	ipmt = "ipmt( 0.06000 / 12 : i : 360 : 200000.00 : 0 : 0 )"
)

type leg struct {
	Account generic.AccountID
	Memo    string
	Debit   string
	Credit  string
}

func legs(body generic.TemplateTransaction) []leg {
	out := make([]leg, len(body.Splits))
	for i, s := range body.Splits {
		out[i] = leg{s.Account, s.Memo, s.Debit.String(), s.Credit.String()}
	}
	return out
}

func synthesize(t *testing.T, cfg loan.LoanConfig) *loan.Synthesis {
	t.Helper()
	syn, err := loan.Synthesize(cfg, oracle)
	require.NoError(t, err)
	return syn
}

// =============================================================================
// MAIN TEMPLATE
// =============================================================================

func TestSynthesize_NoEscrowNoOptions(t *testing.T) {
	syn := synthesize(t, thirtyYear())

	main := syn.Main
	assert.Equal(t, "Mortgage", main.Name)
	assert.Equal(t, day(2025, time.January, 1), main.Start)
	assert.True(t, main.LastOccurred.IsZero())
	assert.Equal(t, day(2054, time.December, 1), main.End)
	assert.Equal(t, 1, main.InstanceCount)
	assert.Empty(t, syn.Extras)

	require.Len(t, main.Transactions, 1)
	body := main.Transactions[0]
	assert.Equal(t, "Mortgage - Payment", body.Description)
	assert.Equal(t, generic.DefaultCurrency, body.Currency)
	assert.Equal(t, []leg{
		{checking, "Mortgage - Payment", "", pmt},
		{mortgage, "Mortgage - Principal", ppmt, ""},
		{interest, "Mortgage - Interest", ipmt, ""},
	}, legs(body))
}

func TestSynthesize_ResumesPartwayThrough(t *testing.T) {
	// GIVEN: 6 of 360 payments made, resuming 2025-07-01
	// THEN: the template continues at instance 7 and still ends in 2054
	cfg := thirtyYear()
	cfg.RemainingPeriods = 354
	cfg.RepaymentStart = day(2025, time.July, 1)

	main := synthesize(t, cfg).Main

	assert.Equal(t, 7, main.InstanceCount)
	assert.Equal(t, day(2025, time.January, 1), main.Start)
	assert.Equal(t, day(2025, time.June, 1), main.LastOccurred)
	assert.Equal(t, day(2054, time.December, 1), main.End)
}

func TestSynthesize_DefaultName(t *testing.T) {
	cfg := thirtyYear()
	cfg.Name = "  "

	main := synthesize(t, cfg).Main

	assert.Equal(t, "Loan", main.Name)
	assert.Equal(t, "Loan - Payment", main.Transactions[0].Description)
}

func TestSynthesize_PrincipalFallsBackToPrimaryAccount(t *testing.T) {
	cfg := thirtyYear()
	cfg.PrincipalAccount = ""
	cfg.PrimaryAccount = "Liabilities:Loan"

	main := synthesize(t, cfg).Main

	assert.Len(t, splitsFor(main, "Liabilities:Loan"), 1)
}

func TestSynthesize_InterestToPrincipalAccount_KeepsBothFormulas(t *testing.T) {
	// GIVEN: interest is booked against the loan account itself
	cfg := thirtyYear()
	cfg.InterestAccount = mortgage

	// WHEN: synthesizing
	main := synthesize(t, cfg).Main

	// THEN: one debit split carries principal and interest
	require.Len(t, main.Transactions, 1)
	assert.Equal(t, []leg{
		{checking, "Mortgage - Payment", "", pmt},
		{mortgage, "Mortgage - Principal", ppmt + " + " + ipmt, ""},
	}, legs(main.Transactions[0]))
}

func TestSynthesize_Escrow_InterestToPrincipalAccount_KeepsBothFormulas(t *testing.T) {
	cfg := withEscrow(thirtyYear())
	cfg.InterestAccount = mortgage

	escrowBody := synthesize(t, cfg).Main.Transactions[1]

	assert.Equal(t, []leg{
		{escrow, "Mortgage - Payment", "", pmt},
		{mortgage, "Mortgage - Principal", ppmt + " + " + ipmt, ""},
	}, legs(escrowBody))
}

func TestSynthesize_EscrowNoOptions(t *testing.T) {
	syn := synthesize(t, withEscrow(thirtyYear()))

	require.Len(t, syn.Main.Transactions, 2)
	mainBody, escrowBody := syn.Main.Transactions[0], syn.Main.Transactions[1]

	assert.Equal(t, "Mortgage - Escrow Payment", mainBody.Description)
	assert.Equal(t, []leg{
		{checking, "Mortgage", "", pmt},
		{escrow, "Mortgage", pmt, ""},
	}, legs(mainBody))

	assert.Equal(t, "Mortgage - Payment", escrowBody.Description)
	assert.Equal(t, []leg{
		{escrow, "Mortgage - Payment", "", pmt},
		{mortgage, "Mortgage - Principal", ppmt, ""},
		{interest, "Mortgage - Interest", ipmt, ""},
	}, legs(escrowBody))
}

// =============================================================================
// OPTIONS PAID WITH THE LOAN
// =============================================================================

func TestSynthesize_SharedOption_NoEscrow_MergesIntoFromSplit(t *testing.T) {
	opt := taxOption("250")
	opt.ThroughEscrow = false

	syn := synthesize(t, withOptions(thirtyYear(), opt))

	assert.Empty(t, syn.Extras)
	require.Len(t, syn.Main.Transactions, 1)
	assert.Equal(t, []leg{
		{checking, "Mortgage - Payment", "", pmt + " + 250.00"},
		{mortgage, "Mortgage - Principal", ppmt, ""},
		{interest, "Mortgage - Interest", ipmt, ""},
		{taxes, "Tax Payment", "250.00", ""},
	}, legs(syn.Main.Transactions[0]))
}

func TestSynthesize_ThroughEscrowWithoutEscrowAccount_IsPaidDirectly(t *testing.T) {
	// ThroughEscrow alone is not enough; the loan needs an escrow account.
	syn := synthesize(t, withOptions(thirtyYear(), taxOption("250")))

	require.Len(t, syn.Main.Transactions, 1)
	assert.Equal(t, pmt+" + 250.00", splitsFor(syn.Main, checking)[0].Credit.String())
	assert.Len(t, splitsFor(syn.Main, taxes), 1)
	assert.Empty(t, splitsFor(syn.Main, escrow))
}

func TestSynthesize_SharedOption_Escrow_NoSource(t *testing.T) {
	syn := synthesize(t, withOptions(withEscrow(thirtyYear()), taxOption("250")))

	require.Len(t, syn.Main.Transactions, 2)
	assert.Equal(t, []leg{
		{checking, "Mortgage", "", pmt + " + 250.00"},
		{escrow, "Mortgage", pmt + " + 250.00", ""},
	}, legs(syn.Main.Transactions[0]))
	assert.Equal(t, []leg{
		{escrow, "Mortgage - Payment", "", pmt + " + 250.00"},
		{mortgage, "Mortgage - Principal", ppmt, ""},
		{interest, "Mortgage - Interest", ipmt, ""},
		{taxes, "Tax Payment", "250.00", ""},
	}, legs(syn.Main.Transactions[1]))
}

func TestSynthesize_SharedOption_Escrow_WithSource(t *testing.T) {
	opt := taxOption("250")
	opt.Source = savings

	syn := synthesize(t, withOptions(withEscrow(thirtyYear()), opt))

	assert.Equal(t, []leg{
		{checking, "Mortgage", "", pmt},
		{escrow, "Mortgage", pmt + " + 250.00", ""},
		{savings, "Tax Payment", "", "250.00"},
	}, legs(syn.Main.Transactions[0]))
	assert.Equal(t, pmt+" + 250.00", splitsFor(syn.Main, escrow)[1].Credit.String())
}

func TestSynthesize_SharedOptions_SameSourceAccumulates(t *testing.T) {
	a := taxOption("250")
	a.ThroughEscrow = false
	a.Source = savings
	b := insuranceOption("100.255")
	b.ThroughEscrow = false
	b.Source = savings

	syn := synthesize(t, withOptions(thirtyYear(), a, b))

	fromSavings := splitsFor(syn.Main, savings)
	require.Len(t, fromSavings, 1, "one credit split per account per body")
	assert.Equal(t, "350.26", fromSavings[0].Credit.String())
	assert.Equal(t, pmt, splitsFor(syn.Main, checking)[0].Credit.String())
}

func TestSynthesize_SameDestination_GetsSeparateDebits(t *testing.T) {
	a := taxOption("250")
	b := insuranceOption("100")
	b.Destination = taxes

	syn := synthesize(t, withOptions(withEscrow(thirtyYear()), a, b))

	dest := splitsFor(syn.Main, taxes)
	require.Len(t, dest, 2)
	assert.Equal(t, "250.00", dest[0].Debit.String())
	assert.Equal(t, "100.00", dest[1].Debit.String())
}

func TestSynthesize_DisabledOptionExcluded(t *testing.T) {
	disabled := insuranceOption("80")
	disabled.Enabled = false
	disabled.Destination = ""

	syn := synthesize(t, withOptions(withEscrow(thirtyYear()), disabled))

	assert.Empty(t, syn.Extras)
	assert.Empty(t, splitsFor(syn.Main, insurance))
	for _, body := range syn.Main.Transactions {
		for _, s := range body.Splits {
			assert.NotContains(t, s.Debit.String(), "80.00")
			assert.NotContains(t, s.Credit.String(), "80.00")
		}
	}
}

// =============================================================================
// OPTIONS ON THEIR OWN SCHEDULE
// =============================================================================

func TestSynthesize_OwnSchedule_ThroughEscrow(t *testing.T) {
	// GIVEN: Taxes of 1200 due every March 15, routed through escrow
	// THEN: the loan payment saves 1200 into escrow, a separate template
	//       pays the taxes out of escrow
	cfg := withOptions(withEscrow(thirtyYear()), annually(taxOption("1200"), day(2025, time.March, 15)))

	syn := synthesize(t, cfg)

	assert.Equal(t, []leg{
		{checking, "Mortgage", "", pmt + " + 1200.00"},
		{escrow, "Mortgage", pmt + " + 1200.00", ""},
	}, legs(syn.Main.Transactions[0]))

	require.Len(t, syn.Extras, 1)
	tax := syn.Extras[0]
	assert.Equal(t, "Mortgage - Taxes", tax.Name)
	assert.Equal(t, generic.FrequencyAnnual, tax.Frequency.Kind)
	assert.Equal(t, day(2025, time.March, 15), tax.Start)
	assert.True(t, tax.LastOccurred.IsZero())
	assert.Equal(t, syn.Main.End, tax.End)
	assert.Equal(t, 0, tax.InstanceCount)

	require.Len(t, tax.Transactions, 1, "empty main body is dropped")
	assert.Equal(t, "Mortgage - Taxes", tax.Transactions[0].Description)
	assert.Equal(t, []leg{
		{escrow, "Tax Payment", "", "1200.00"},
		{taxes, "Tax Payment", "1200.00", ""},
	}, legs(tax.Transactions[0]))
}

func TestSynthesize_OwnSchedule_Direct_WithSource(t *testing.T) {
	opt := annually(taxOption("1200"), day(2025, time.March, 15))
	opt.ThroughEscrow = false
	opt.Source = savings

	syn := synthesize(t, withOptions(withEscrow(thirtyYear()), opt))

	assert.Equal(t, pmt, splitsFor(syn.Main, checking)[0].Credit.String(), "main template untouched")
	require.Len(t, syn.Extras, 1)
	require.Len(t, syn.Extras[0].Transactions, 1)
	assert.Equal(t, []leg{
		{savings, "Tax Payment", "", "1200.00"},
		{taxes, "Tax Payment", "1200.00", ""},
	}, legs(syn.Extras[0].Transactions[0]))
}

func TestSynthesize_OwnSchedule_Direct_NoSource(t *testing.T) {
	opt := annually(taxOption("1200"), day(2025, time.March, 15))
	opt.ThroughEscrow = false

	syn := synthesize(t, withOptions(thirtyYear(), opt))

	require.Len(t, syn.Extras, 1)
	assert.Equal(t, []leg{
		{checking, "Tax Payment", "", "1200.00"},
		{taxes, "Tax Payment", "1200.00", ""},
	}, legs(syn.Extras[0].Transactions[0]))
}

func TestSynthesize_OwnSchedule_InstanceCountConverted(t *testing.T) {
	// 60 payments made; quarterly option is 61 / 3 = 20 occurrences in
	cfg := thirtyYear()
	cfg.RemainingPeriods = 300
	cfg.RepaymentStart = day(2030, time.January, 1)
	opt := taxOption("600")
	opt.Schedule = &loan.OptionSchedule{
		Frequency: generic.Quarterly(day(2025, time.February, 1)),
		StartDate: day(2025, time.February, 1),
	}

	syn := synthesize(t, withOptions(withEscrow(cfg), opt))

	require.Len(t, syn.Extras, 1)
	assert.Equal(t, 61, syn.Main.InstanceCount)
	assert.Equal(t, 20, syn.Extras[0].InstanceCount)
	assert.Equal(t, day(2029, time.November, 1), syn.Extras[0].LastOccurred)
}

func TestSynthesize_OwnSchedule_UnsupportedFrequency(t *testing.T) {
	opt := taxOption("5")
	opt.Schedule = &loan.OptionSchedule{
		Frequency: generic.Daily(day(2025, time.January, 1), 1),
		StartDate: day(2025, time.January, 1),
	}

	syn, err := loan.Synthesize(withOptions(thirtyYear(), opt), oracle)

	assert.Nil(t, syn)
	assert.ErrorIs(t, err, generic.ErrUnsupportedFrequency)
}

// =============================================================================
// INVARIANTS
// =============================================================================

func TestSynthesize_EscrowConservation(t *testing.T) {
	// Money moved into escrow equals money paid out of escrow, option by
	// option, across main and extra templates.
	cfg := withOptions(withEscrow(thirtyYear()),
		annually(taxOption("2400"), day(2025, time.March, 15)),
		insuranceOption("95.50"),
		loan.RepaymentOption{Name: "PMI", Memo: "PMI Payment", Enabled: true, Amount: dec("60"), ThroughEscrow: true, Source: savings, Destination: "Expenses:PMI"},
	)

	syn := synthesize(t, cfg)

	in, out := decimal.Zero, decimal.Zero
	var inExpr, outExpr []string
	for _, st := range syn.Templates() {
		for _, s := range splitsFor(st, escrow) {
			in = in.Add(s.Debit.Literal)
			out = out.Add(s.Credit.Literal)
			inExpr = append(inExpr, s.Debit.Exprs...)
			outExpr = append(outExpr, s.Credit.Exprs...)
		}
	}

	assert.Equal(t, "2555.50", in.StringFixed(2))
	assert.True(t, in.Equal(out), "in %s, out %s", in, out)
	assert.Equal(t, inExpr, outExpr)
}

func TestSynthesize_DoesNotModifyInput(t *testing.T) {
	cfg := withOptions(withEscrow(thirtyYear()), annually(taxOption("1200"), day(2025, time.March, 15)), insuranceOption("90"))
	snapshot := cfg
	snapshot.Options = append([]loan.RepaymentOption(nil), cfg.Options...)

	first := synthesize(t, cfg)
	second := synthesize(t, cfg)

	assert.Equal(t, snapshot, cfg)
	assert.Equal(t, first, second)
}

func TestSynthesize_RequiresAccounts(t *testing.T) {
	cfg := thirtyYear()
	cfg.FromAccount = ""

	_, err := loan.Synthesize(cfg, oracle)

	var accErr *generic.AccountRequiredError
	require.ErrorAs(t, err, &accErr)
	assert.Equal(t, "from_account", accErr.Role)

	opt := taxOption("10")
	opt.Destination = ""
	_, err = loan.Synthesize(withOptions(thirtyYear(), opt), oracle)
	assert.ErrorIs(t, err, generic.ErrAccountRequired)
}

func TestSynthesize_RejectsInvalidConfig(t *testing.T) {
	cases := map[string]func(*loan.LoanConfig){
		"remaining_periods": func(c *loan.LoanConfig) { c.RemainingPeriods = 361 },
		"start_date":        func(c *loan.LoanConfig) { c.StartDate = generic.TimePoint{} },
		"repayment_start":   func(c *loan.LoanConfig) { c.RepaymentStart = day(2024, time.January, 1) },
		"options":           func(c *loan.LoanConfig) { c.Options = []loan.RepaymentOption{taxOption("1"), taxOption("2")} },
		"options[0].amount": func(c *loan.LoanConfig) { c.Options = []loan.RepaymentOption{taxOption("-1")} },
		"options[0].schedule.start_date": func(c *loan.LoanConfig) {
			opt := taxOption("1")
			opt.Schedule = &loan.OptionSchedule{Frequency: generic.Annual(day(2025, time.March, 1))}
			c.Options = []loan.RepaymentOption{opt}
		},
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			cfg := thirtyYear()
			mutate(&cfg)

			syn, err := loan.Synthesize(cfg, oracle)

			assert.Nil(t, syn)
			var argErr *generic.InvalidArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, field, argErr.Field)
		})
	}
}
