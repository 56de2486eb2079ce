/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.Store using SQLite, plus a small table of saved loan
  definitions. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  generic.Store: Scheduled transaction persistence
  Store.WithLoan: generic.Store view that saves a loan definition in the
                  same SQL transaction as its templates

APPEND-ONLY ENFORCEMENT:
  The Store enforces append-only semantics:
  - No UPDATE statements on scheduled_transactions
  - No DELETE statements on scheduled_transactions
  - A wrong template is superseded by committing a new loan definition

KEY TABLES:
  scheduled_transactions: Immutable log of recurring transaction templates
  loans:                  Loan definitions (JSON), versioned on save

SCHEMA NOTES:
  Recurrence rules and transaction bodies are stored as JSON columns. They
  are read back whole and never queried into, so normalizing splits into
  their own table would buy nothing. Formulas travel as their rendered text
  and are parsed back by generic.ParseFormula.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/loans.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := generic.NewLedger(store)
  syn, err := loan.Commit(ctx, ledger, cfg, generic.CalendarOracle{}, opts)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/ledger.go: Higher-level ledger using Store
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/loan-engine/generic"
)

// Store implements generic.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ generic.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is its own database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Scheduled transactions (append-only)
	CREATE TABLE IF NOT EXISTS scheduled_transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		frequency_json TEXT NOT NULL,
		start_date TEXT NOT NULL,
		last_occurred TEXT,
		end_date TEXT,
		instance_count INTEGER NOT NULL,
		transactions_json TEXT NOT NULL,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scheduled_transactions_name
		ON scheduled_transactions(name);
	CREATE INDEX IF NOT EXISTS idx_scheduled_transactions_idempotency
		ON scheduled_transactions(idempotency_key) WHERE idempotency_key IS NOT NULL;

	-- Loan definitions
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SCHEDULED TRANSACTIONS (generic.Store interface)
// =============================================================================

// Append adds a template to the log.
func (s *Store) Append(ctx context.Context, st generic.ScheduledTransaction) error {
	return s.AppendBatch(ctx, []generic.ScheduledTransaction{st})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) appendTemplate(ctx context.Context, db execer, st generic.ScheduledTransaction) error {
	if st.ID == "" {
		return fmt.Errorf("%w: template %q has no id", generic.ErrTransactionFailed, st.Name)
	}
	frequencyJSON, err := json.Marshal(st.Frequency)
	if err != nil {
		return fmt.Errorf("%w: encode frequency: %v", generic.ErrTransactionFailed, err)
	}
	bodiesJSON, err := json.Marshal(st.Transactions)
	if err != nil {
		return fmt.Errorf("%w: encode transactions: %v", generic.ErrTransactionFailed, err)
	}

	createdAt := st.CreatedAt
	if createdAt.IsZero() {
		createdAt = generic.Today()
	}

	query := `
		INSERT INTO scheduled_transactions
		(id, name, frequency_json, start_date, last_occurred, end_date,
		 instance_count, transactions_json, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.ExecContext(ctx, query,
		string(st.ID),
		st.Name,
		string(frequencyJSON),
		st.Start.String(),
		nullString(st.LastOccurred.String()),
		nullString(st.End.String()),
		st.InstanceCount,
		string(bodiesJSON),
		nullString(st.IdempotencyKey),
		createdAt.String(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			if strings.Contains(err.Error(), "idempotency_key") {
				return generic.ErrDuplicateIdempotencyKey
			}
			return fmt.Errorf("%w: id %s already stored", generic.ErrTransactionFailed, st.ID)
		}
		return fmt.Errorf("failed to append template: %w", err)
	}
	return nil
}

// AppendBatch adds multiple templates atomically.
func (s *Store) AppendBatch(ctx context.Context, sts []generic.ScheduledTransaction) error {
	return s.appendBatch(ctx, sts, nil)
}

// appendBatch writes sts, and l when given, in one SQL transaction.
func (s *Store) appendBatch(ctx context.Context, sts []generic.ScheduledTransaction, l *LoanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicate idempotency keys within the batch first
	idempotencyKeys := make(map[string]bool)
	for _, st := range sts {
		if st.IdempotencyKey != "" {
			if idempotencyKeys[st.IdempotencyKey] {
				return generic.ErrDuplicateIdempotencyKey
			}
			idempotencyKeys[st.IdempotencyKey] = true
		}
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, st := range sts {
		if err := s.appendTemplate(ctx, sqlTx, st); err != nil {
			return err
		}
	}
	if l != nil {
		if err := saveLoan(ctx, sqlTx, *l); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// WithLoan returns a view of the store whose AppendBatch also saves l in
// the same SQL transaction as the templates: either the definition and all
// of its templates are stored, or nothing is.
//
//	ledger := generic.NewLedger(store.WithLoan(record))
//	syn, err := loan.Commit(ctx, ledger, cfg, oracle, opts)
func (s *Store) WithLoan(l LoanRecord) generic.Store {
	return &loanBatch{Store: s, loan: l}
}

type loanBatch struct {
	*Store
	loan LoanRecord
}

func (b *loanBatch) Append(ctx context.Context, st generic.ScheduledTransaction) error {
	return b.AppendBatch(ctx, []generic.ScheduledTransaction{st})
}

func (b *loanBatch) AppendBatch(ctx context.Context, sts []generic.ScheduledTransaction) error {
	return b.Store.appendBatch(ctx, sts, &b.loan)
}

const selectTemplates = `
	SELECT id, name, frequency_json, start_date, last_occurred, end_date,
	       instance_count, transactions_json, idempotency_key, created_at
	FROM scheduled_transactions
`

// Load returns one template by ID.
func (s *Store) Load(ctx context.Context, id generic.TemplateID) (generic.ScheduledTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sts, err := s.queryTemplates(ctx, selectTemplates+" WHERE id = ?", string(id))
	if err != nil {
		return generic.ScheduledTransaction{}, err
	}
	if len(sts) == 0 {
		return generic.ScheduledTransaction{}, fmt.Errorf("%w: %s", generic.ErrTemplateNotFound, id)
	}
	return sts[0], nil
}

// List returns every template in insertion order.
func (s *Store) List(ctx context.Context) ([]generic.ScheduledTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTemplates(ctx, selectTemplates+" ORDER BY seq ASC")
}

// Exists checks if an idempotency key exists.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM scheduled_transactions WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)

	return count > 0, err
}

func (s *Store) queryTemplates(ctx context.Context, query string, args ...any) ([]generic.ScheduledTransaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []generic.ScheduledTransaction
	for rows.Next() {
		st, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, st)
	}

	return templates, rows.Err()
}

func scanTemplate(rows *sql.Rows) (generic.ScheduledTransaction, error) {
	var (
		st             generic.ScheduledTransaction
		id             string
		frequencyJSON  string
		start          string
		lastOccurred   sql.NullString
		end            sql.NullString
		bodiesJSON     string
		idempotencyKey sql.NullString
		createdAt      string
	)

	err := rows.Scan(
		&id, &st.Name, &frequencyJSON, &start, &lastOccurred, &end,
		&st.InstanceCount, &bodiesJSON, &idempotencyKey, &createdAt,
	)
	if err != nil {
		return st, fmt.Errorf("failed to scan template: %w", err)
	}

	st.ID = generic.TemplateID(id)
	st.IdempotencyKey = idempotencyKey.String
	if err := json.Unmarshal([]byte(frequencyJSON), &st.Frequency); err != nil {
		return st, fmt.Errorf("template %s: decode frequency: %w", id, err)
	}
	if err := json.Unmarshal([]byte(bodiesJSON), &st.Transactions); err != nil {
		return st, fmt.Errorf("template %s: decode transactions: %w", id, err)
	}
	for _, field := range []struct {
		dst *generic.TimePoint
		src string
	}{
		{&st.Start, start},
		{&st.LastOccurred, lastOccurred.String},
		{&st.End, end.String},
		{&st.CreatedAt, createdAt},
	} {
		if err := field.dst.UnmarshalText([]byte(field.src)); err != nil {
			return st, fmt.Errorf("template %s: decode date: %w", id, err)
		}
	}

	return st, nil
}

// =============================================================================
// LOAN STORE
// =============================================================================

// LoanRecord is a saved loan definition with its JSON config.
type LoanRecord struct {
	ID         string
	Name       string
	ConfigJSON string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaveLoan saves a loan definition. Saving an existing ID bumps its version.
func (s *Store) SaveLoan(ctx context.Context, l LoanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveLoan(ctx, s.db, l)
}

func saveLoan(ctx context.Context, db execer, l LoanRecord) error {
	if l.ID == "" {
		return fmt.Errorf("%w: loan %q has no id", generic.ErrTransactionFailed, l.Name)
	}

	query := `
		INSERT INTO loans (id, name, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			config_json = excluded.config_json,
			version = loans.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.ExecContext(ctx, query, l.ID, l.Name, l.ConfigJSON, now, now); err != nil {
		return fmt.Errorf("failed to save loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan definition by ID. It returns nil, nil when
// there is none.
func (s *Store) GetLoan(ctx context.Context, id string) (*LoanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var l LoanRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, config_json, version, created_at, updated_at FROM loans WHERE id = ?",
		id,
	).Scan(&l.ID, &l.Name, &l.ConfigJSON, &l.Version, &createdAt, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	l.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &l, nil
}

// ListLoans returns all loan definitions by name.
func (s *Store) ListLoans(ctx context.Context) ([]LoanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, config_json, version, created_at, updated_at FROM loans ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []LoanRecord
	for rows.Next() {
		var l LoanRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&l.ID, &l.Name, &l.ConfigJSON, &l.Version, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		l.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"scheduled_transactions", "loans"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
