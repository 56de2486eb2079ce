package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-engine/generic"
	"github.com/warp/loan-engine/loan"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// escrowMortgage synthesizes a mortgage with escrowed annual taxes, which
// yields two templates with two bodies each.
func escrowMortgage(t *testing.T) []generic.ScheduledTransaction {
	t.Helper()
	start := generic.NewTimePoint(2025, time.January, 1)
	taxStart := generic.NewTimePoint(2025, time.March, 15)
	cfg := loan.LoanConfig{
		Name:              "Mortgage",
		Principal:         decimal.NewFromInt(200000),
		AnnualRatePercent: decimal.NewFromInt(6),
		TermCount:         30,
		TermUnit:          loan.TermYears,
		RemainingPeriods:  360,
		StartDate:         start,
		PaymentFrequency:  generic.Monthly(start, 1, 1),
		FromAccount:       "Assets:Checking",
		PrincipalAccount:  "Liabilities:Mortgage",
		InterestAccount:   "Expenses:Interest",
		EscrowAccount:     "Assets:Escrow",
		Options: []loan.RepaymentOption{{
			Name:          "Taxes",
			Memo:          "Tax Payment",
			Enabled:       true,
			Amount:        decimal.NewFromInt(1200),
			ThroughEscrow: true,
			Destination:   "Expenses:Taxes",
			Schedule:      &loan.OptionSchedule{Frequency: generic.Annual(taxStart), StartDate: taxStart},
		}},
	}
	syn, err := loan.Synthesize(cfg, generic.CalendarOracle{})
	require.NoError(t, err)

	sts := syn.Templates()
	for i := range sts {
		sts[i].ID = generic.TemplateID("st-" + sts[i].Name)
		sts[i].IdempotencyKey = "loan-1/" + sts[i].Name
		sts[i].CreatedAt = generic.NewTimePoint(2025, time.January, 2)
	}
	return sts
}

func TestStore_AppendBatchAndLoad(t *testing.T) {
	// GIVEN: An empty store and a synthesized template set
	store := newTestStore(t)
	ctx := context.Background()
	sts := escrowMortgage(t)
	require.Len(t, sts, 2)

	// WHEN: Appending the set
	require.NoError(t, store.AppendBatch(ctx, sts))

	// THEN: Each template reads back field for field
	for _, want := range sts {
		got, err := store.Load(ctx, want.ID)
		require.NoError(t, err)

		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Frequency, got.Frequency)
		assert.Equal(t, want.Start, got.Start)
		assert.Equal(t, want.LastOccurred, got.LastOccurred)
		assert.Equal(t, want.End, got.End)
		assert.Equal(t, want.InstanceCount, got.InstanceCount)
		assert.Equal(t, want.IdempotencyKey, got.IdempotencyKey)
		assert.Equal(t, want.CreatedAt, got.CreatedAt)

		require.Len(t, got.Transactions, len(want.Transactions))
		for i, body := range want.Transactions {
			assert.Equal(t, body.Description, got.Transactions[i].Description)
			require.Len(t, got.Transactions[i].Splits, len(body.Splits))
			for j, split := range body.Splits {
				gotSplit := got.Transactions[i].Splits[j]
				assert.Equal(t, split.Account, gotSplit.Account)
				assert.Equal(t, split.Memo, gotSplit.Memo)
				assert.Equal(t, split.Debit.String(), gotSplit.Debit.String())
				assert.Equal(t, split.Credit.String(), gotSplit.Credit.String())
			}
		}
	}

	// AND: List keeps insertion order
	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Mortgage", all[0].Name)
	assert.Equal(t, "Mortgage - Taxes", all[1].Name)
}

func TestStore_DuplicateIdempotencyKeyWritesNothing(t *testing.T) {
	// GIVEN: A committed template set
	store := newTestStore(t)
	ctx := context.Background()
	sts := escrowMortgage(t)
	require.NoError(t, store.AppendBatch(ctx, sts[:1]))

	// WHEN: A batch reuses one of the stored keys under a new ID
	retry := sts[0]
	retry.ID = "st-retry"
	err := store.AppendBatch(ctx, []generic.ScheduledTransaction{sts[1], retry})

	// THEN: The batch fails as a conflict and rolls back entirely
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	exists, err := store.Exists(ctx, sts[1].IdempotencyKey)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_BatchInternalDuplicate(t *testing.T) {
	store := newTestStore(t)
	sts := escrowMortgage(t)
	sts[1].IdempotencyKey = sts[0].IdempotencyKey

	err := store.AppendBatch(context.Background(), sts)
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
}

func TestStore_MissingIDAndNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Append(ctx, generic.ScheduledTransaction{Name: "no id"})
	assert.ErrorIs(t, err, generic.ErrTransactionFailed)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrTemplateNotFound)
	assert.True(t, generic.IsNotFound(err))
}

func TestStore_WorksBehindLedger(t *testing.T) {
	// GIVEN: A ledger over the SQLite store
	store := newTestStore(t)
	ctx := context.Background()
	ledger := generic.NewLedger(store)
	start := generic.NewTimePoint(2025, time.January, 1)
	cfg := loan.LoanConfig{
		Name:              "Car",
		Principal:         decimal.NewFromInt(20000),
		AnnualRatePercent: decimal.RequireFromString("4.5"),
		TermCount:         60,
		TermUnit:          loan.TermMonths,
		RemainingPeriods:  60,
		StartDate:         start,
		PaymentFrequency:  generic.Monthly(start, 1, 1),
		FromAccount:       "Assets:Checking",
		PrincipalAccount:  "Liabilities:Car",
		InterestAccount:   "Expenses:Interest",
	}

	// WHEN: Committing twice with the same key
	_, err := loan.Commit(ctx, ledger, cfg, generic.CalendarOracle{}, loan.CommitOptions{IdempotencyKey: "car"})
	require.NoError(t, err)
	_, err = loan.Commit(ctx, ledger, cfg, generic.CalendarOracle{}, loan.CommitOptions{IdempotencyKey: "car"})

	// THEN: The retry is a conflict and one template is stored
	assert.True(t, generic.IsConflict(err))
	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_Loans(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveLoan(ctx, LoanRecord{ID: "l1", Name: "Mortgage", ConfigJSON: `{"name":"Mortgage"}`}))
	require.NoError(t, store.SaveLoan(ctx, LoanRecord{ID: "l2", Name: "Car", ConfigJSON: `{"name":"Car"}`}))
	require.NoError(t, store.SaveLoan(ctx, LoanRecord{ID: "l1", Name: "Mortgage", ConfigJSON: `{"name":"Mortgage","term_count":15}`}))

	got, err := store.GetLoan(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Version)
	assert.Contains(t, got.ConfigJSON, "term_count")

	missing, err := store.GetLoan(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	loans, err := store.ListLoans(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, "Car", loans[0].Name)

	require.NoError(t, store.Reset(ctx))
	loans, err = store.ListLoans(ctx)
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func TestStore_WithLoan_SavesDefinitionAndTemplatesTogether(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ledger := generic.NewLedger(store.WithLoan(LoanRecord{ID: "l1", Name: "Mortgage", ConfigJSON: `{"name":"Mortgage"}`}))

	// WHEN: The batch goes through the loan-aware view
	require.NoError(t, ledger.AppendBatch(ctx, escrowMortgage(t)))

	// THEN: Templates and definition are both stored
	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	got, err := store.GetLoan(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Version)
}

func TestStore_WithLoan_FailedDefinitionWritesNoTemplates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// GIVEN: A definition that cannot be saved
	view := store.WithLoan(LoanRecord{Name: "Mortgage", ConfigJSON: `{}`})

	// WHEN: Appending the templates with it
	err := view.AppendBatch(ctx, escrowMortgage(t))

	// THEN: Nothing is stored, so a retry under the same keys is not a conflict
	assert.ErrorIs(t, err, generic.ErrTransactionFailed)
	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	retry := generic.NewLedger(store.WithLoan(LoanRecord{ID: "l1", Name: "Mortgage", ConfigJSON: `{}`}))
	require.NoError(t, retry.AppendBatch(ctx, escrowMortgage(t)))
	loans, err := store.ListLoans(ctx)
	require.NoError(t, err)
	assert.Len(t, loans, 1)
}

func TestStore_WithLoan_FailedTemplatesSaveNoDefinition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AppendBatch(ctx, escrowMortgage(t)[:1]))

	// WHEN: The same keys are appended again, under new IDs, with a definition
	sts := escrowMortgage(t)
	for i := range sts {
		sts[i].ID += "-retry"
	}
	err := store.WithLoan(LoanRecord{ID: "l1", Name: "Mortgage", ConfigJSON: `{}`}).AppendBatch(ctx, sts)

	// THEN: The batch fails and the definition is not saved
	assert.True(t, generic.IsConflict(err))
	got, err := store.GetLoan(ctx, "l1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
