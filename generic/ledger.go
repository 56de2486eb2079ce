/*
ledger.go - Append-only scheduled-transaction sink

PURPOSE:
  The Ledger receives the recurring transaction templates a committed loan
  produces. The accounting side then instantiates real transactions from
  them on every occurrence; this engine never does.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. ALL-OR-NONE: A loan's templates are appended as one batch. A loan with
     a main template but without its tax template would silently stop
     paying taxes, so partial batches must never be committed.
  3. IDEMPOTENT: Same idempotency key = same template (no duplicates)

CORRECTIONS:
  A wrong template is not edited. A new loan definition is committed and
  the old templates are ended by the accounting side.

SEE ALSO:
  - store.go: Low-level persistence interface
  - loan/commit.go: Synthesizes and appends a loan's templates
*/
package generic

import "context"

// =============================================================================
// LEDGER - Append-only template log
// =============================================================================

// Ledger is the sink for scheduled transactions.
type Ledger interface {
	// Append adds one template. Fails if the idempotency key exists.
	Append(ctx context.Context, st ScheduledTransaction) error

	// AppendBatch adds multiple templates atomically.
	AppendBatch(ctx context.Context, sts []ScheduledTransaction) error

	// Get returns one template by ID.
	Get(ctx context.Context, id TemplateID) (ScheduledTransaction, error)

	// List returns all templates in insertion order. Read-only.
	List(ctx context.Context) ([]ScheduledTransaction, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Append(ctx context.Context, st ScheduledTransaction) error {
	return l.AppendBatch(ctx, []ScheduledTransaction{st})
}

func (l *DefaultLedger) AppendBatch(ctx context.Context, sts []ScheduledTransaction) error {
	if len(sts) == 0 {
		return nil
	}
	// Check all idempotency keys first, including collisions inside the batch
	seen := make(map[string]bool, len(sts))
	for _, st := range sts {
		if st.IdempotencyKey == "" {
			continue
		}
		if seen[st.IdempotencyKey] {
			return ErrDuplicateIdempotencyKey
		}
		seen[st.IdempotencyKey] = true
		exists, err := l.Store.Exists(ctx, st.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.AppendBatch(ctx, sts)
}

func (l *DefaultLedger) Get(ctx context.Context, id TemplateID) (ScheduledTransaction, error) {
	return l.Store.Load(ctx, id)
}

func (l *DefaultLedger) List(ctx context.Context) ([]ScheduledTransaction, error) {
	return l.Store.List(ctx)
}

// =============================================================================
// ERRORS
// =============================================================================
// Error types are defined in errors.go for centralized management.
// Key errors used by this package:
//   - ErrDuplicateIdempotencyKey
//   - ErrTemplateNotFound
//   - ErrTransactionFailed
