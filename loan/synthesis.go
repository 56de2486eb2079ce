/*
synthesis.go - Recurring transaction templates for a loan

PURPOSE:
  Turns a LoanConfig into the smallest set of scheduled transactions that
  reproduces every enabled cash flow going forward. The schedule table is
  for people; these templates are what the ledger keeps.

TEMPLATE SET:
  - One main template, always. It carries the loan payment and every
    option paid on the payment dates.
  - One extra template per option with its own schedule, named
    "<loan> - <option>".

ESCROW ROUTING:
  Without escrow the main body pays the loan directly:

    from       credit  pmt
    principal  debit   ppmt
    interest   debit   ipmt

  With escrow the main body moves the payment into escrow and a second
  body pays the loan out of it:

    main:    from credit pmt,   escrow debit pmt
    escrow:  escrow credit pmt, principal debit ppmt, interest debit ipmt

  An option routed through escrow adds its amount to the main body's
  escrow debit, takes it from the from account (or its own source) in the
  main body, and pays the destination out of escrow in the escrow body of
  its template.

ACCOUNT MERGE:
  Within one body an account appears at most once per side. A second
  credit to an account adds to the existing split's formula; destination
  debits are always new splits.

SEE ALSO:
  - amortization.go: pmt/ppmt/ipmt formula text
  - conversion.go: Instance counts for option templates
  - generic/types.go: Formula accumulator
*/
package loan

import "github.com/warp/loan-engine/generic"

// =============================================================================
// SYNTHESIS RESULT
// =============================================================================

// Synthesis is the template set of one loan.
type Synthesis struct {
	Main   generic.ScheduledTransaction   `json:"main"`
	Extras []generic.ScheduledTransaction `json:"extras"`
}

// Templates returns the main template followed by the extras.
func (s *Synthesis) Templates() []generic.ScheduledTransaction {
	return append([]generic.ScheduledTransaction{s.Main}, s.Extras...)
}

// =============================================================================
// TEMPLATE BUILDING
// =============================================================================

type body struct {
	description string
	splits      []generic.TemplateSplit
}

// credit adds to the credit side of account's split, creating the split
// only if the account has no credit in this body yet.
func (b *body) credit(account generic.AccountID, memo string, amount generic.Formula) {
	for i := range b.splits {
		s := &b.splits[i]
		if s.Account == account && !s.Credit.IsEmpty() {
			s.Credit = s.Credit.Plus(amount)
			return
		}
	}
	b.splits = append(b.splits, generic.TemplateSplit{Account: account, Memo: memo, Credit: amount})
}

// debit is credit's counterpart for the debit side.
func (b *body) debit(account generic.AccountID, memo string, amount generic.Formula) {
	for i := range b.splits {
		s := &b.splits[i]
		if s.Account == account && !s.Debit.IsEmpty() {
			s.Debit = s.Debit.Plus(amount)
			return
		}
	}
	b.splits = append(b.splits, generic.TemplateSplit{Account: account, Memo: memo, Debit: amount})
}

// newDebit always appends a split.
func (b *body) newDebit(account generic.AccountID, memo string, amount generic.Formula) {
	b.splits = append(b.splits, generic.TemplateSplit{Account: account, Memo: memo, Debit: amount})
}

type builder struct {
	st     generic.ScheduledTransaction
	main   *body
	escrow *body
}

func newBuilder(name string, freq generic.FrequencySpec, start, last, end generic.TimePoint, instance int, mainDesc, escrowDesc string) *builder {
	return &builder{
		st: generic.ScheduledTransaction{
			Name:          name,
			Frequency:     freq,
			Start:         start,
			LastOccurred:  last,
			End:           end,
			InstanceCount: instance,
		},
		main:   &body{description: mainDesc},
		escrow: &body{description: escrowDesc},
	}
}

// build drops empty bodies and returns the template.
func (b *builder) build(currency generic.Currency) generic.ScheduledTransaction {
	st := b.st
	for _, bd := range []*body{b.main, b.escrow} {
		if len(bd.splits) == 0 {
			continue
		}
		st.Transactions = append(st.Transactions, generic.TemplateTransaction{
			Description: bd.description,
			Currency:    currency,
			Splits:      bd.splits,
		})
	}
	return st
}

// =============================================================================
// SYNTHESIZE
// =============================================================================

// Synthesize builds the scheduled transactions for cfg. It fails without
// producing anything if cfg is invalid or an option's frequency has no
// elapsed-period conversion.
func Synthesize(cfg LoanConfig, oracle generic.FrequencyOracle) (*Synthesis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	name := cfg.DisplayName()
	freq := cfg.mainFrequency()
	resume := cfg.ResumeDate()
	instance := cfg.TotalPeriods() - cfg.RemainingPeriods + 1

	end := generic.NthFrom(oracle, freq, resume, cfg.RemainingPeriods)
	if end.IsZero() {
		return nil, generic.Invalid("remaining_periods", "payment frequency has fewer than %d occurrences after %s", cfg.RemainingPeriods, resume)
	}
	last := generic.LastBefore(oracle, freq, cfg.StartDate, resume)

	mainDesc := name + " - Payment"
	if cfg.HasEscrow() {
		mainDesc = name + " - Escrow Payment"
	}
	payment := newBuilder(name, freq, cfg.StartDate, last, end, instance, mainDesc, name+" - Payment")

	pmt := generic.Expr(PaymentFormula(cfg))
	loanBody := payment.main
	if cfg.HasEscrow() {
		payment.main.credit(cfg.FromAccount, name, pmt)
		payment.main.debit(cfg.EscrowAccount, name, pmt)
		loanBody = payment.escrow
		loanBody.credit(cfg.EscrowAccount, name+" - Payment", pmt)
	} else {
		loanBody.credit(cfg.FromAccount, name+" - Payment", pmt)
	}
	loanBody.debit(cfg.principalAccount(), name+" - Principal", generic.Expr(PrincipalFormula(cfg)))
	loanBody.debit(cfg.InterestAccount, name+" - Interest", generic.Expr(InterestFormula(cfg)))

	var extras []*builder
	for _, opt := range cfg.EnabledOptions() {
		target := payment
		if opt.Schedule != nil {
			optFreq := opt.Schedule.frequency()
			optInstance, err := ConvertElapsed(instance, optFreq)
			if err != nil {
				return nil, err
			}
			optName := name + " - " + opt.Name
			target = newBuilder(optName, optFreq,
				opt.Schedule.StartDate,
				generic.LastBefore(oracle, optFreq, opt.Schedule.StartDate, resume),
				end, optInstance, optName, optName)
			extras = append(extras, target)
		}
		routeOption(cfg, opt, payment, target)
	}

	out := &Synthesis{Main: payment.build(cfg.currency())}
	for _, b := range extras {
		out.Extras = append(out.Extras, b.build(cfg.currency()))
	}
	return out, nil
}

// routeOption adds one enabled option's splits. payment is the main
// template; target is the template the option recurs with, which is
// payment itself for options without their own schedule.
func routeOption(cfg LoanConfig, opt RepaymentOption, payment, target *builder) {
	amount := generic.Literal(opt.Amount)
	memo := opt.Memo

	if opt.ThroughEscrow && cfg.HasEscrow() {
		// Money goes into escrow with every loan payment...
		payment.main.debit(cfg.EscrowAccount, cfg.DisplayName(), amount)
		if opt.Source.IsZero() {
			payment.main.credit(cfg.FromAccount, memo, amount)
		} else {
			payment.main.credit(opt.Source, memo, amount)
		}
		// ...and leaves it on the option's own dates.
		target.escrow.credit(cfg.EscrowAccount, memo, amount)
		target.escrow.newDebit(opt.Destination, memo, amount)
		return
	}

	source := opt.Source
	if source.IsZero() {
		source = cfg.FromAccount
	}
	target.main.credit(source, memo, amount)
	target.main.newDebit(opt.Destination, memo, amount)
}
