/*
store.go - Persistence interface for scheduled transactions

PURPOSE:
  Defines the interface between the domain logic and the database.
  The Store handles persistence while maintaining append-only semantics.
  Different implementations can use SQLite or in-memory storage.

APPEND-ONLY CONTRACT:
  - Append(): Single template write
  - AppendBatch(): Atomic multi-template write
  - NO Update() or Delete() methods exist

IDEMPOTENCY:
  Every write may carry an idempotency key. If the key already exists,
  the write is rejected with ErrDuplicateIdempotencyKey. Committing the
  same loan twice from a retried HTTP call therefore creates nothing.

ATOMIC BATCHES:
  AppendBatch() ensures all-or-nothing semantics. A mortgage with taxes
  and insurance on their own schedules is three templates; either all
  three are written or none are.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing and dry runs

EXAMPLE:
  store, _ := sqlite.New("./loans.db")
  err := store.AppendBatch(ctx, synthesis.Templates())
  if errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
      // Already committed, safe to ignore
  }

SEE ALSO:
  - ledger.go: Higher-level interface using Store
*/
package generic

import "context"

// =============================================================================
// STORE - Interface for template persistence (append-only)
// =============================================================================

// Store handles persistence of scheduled transactions.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete. Ever.
type Store interface {
	// Append persists a template. Returns error if idempotency key exists.
	Append(ctx context.Context, st ScheduledTransaction) error

	// AppendBatch persists multiple templates atomically.
	// Either all succeed or none do.
	AppendBatch(ctx context.Context, sts []ScheduledTransaction) error

	// Load returns one template, ErrTemplateNotFound if absent.
	Load(ctx context.Context, id TemplateID) (ScheduledTransaction, error)

	// List returns all templates in insertion order.
	List(ctx context.Context) ([]ScheduledTransaction, error)

	// Exists checks if idempotency key already exists.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}
