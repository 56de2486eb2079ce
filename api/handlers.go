/*
handlers.go - HTTP API handlers for the loan engine

PURPOSE:
  Exposes the loan engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the loan package.

ENDPOINTS:
  Loans:
    POST   /api/loans/schedule              Review table for a date range
    POST   /api/loans/templates             Synthesize templates (dry run)
    POST   /api/loans/commit                Synthesize and store templates
    GET    /api/loans                       Saved loan definitions
    GET    /api/loans/{id}                  One saved loan definition

  Scheduled transactions:
    GET    /api/scheduled-transactions      All stored templates
    GET    /api/scheduled-transactions/{id} One stored template

  Repayment options:
    GET    /api/repayment-options/defaults  Taxes, insurance, PMI, other

  Scenarios:
    GET    /api/scenarios                   List demo scenarios
    GET    /api/scenarios/current           Last loaded scenario
    POST   /api/scenarios/load              Load a demo scenario
    POST   /api/scenarios/reset             Clear the database

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Ledger: Append-only template sink over Store
  - LoanFactory: JSON to LoanConfig conversion
  - Oracle: Calendar used for every occurrence walk

REQUEST FLOW:
  1. Parse HTTP request
  2. Convert the loan definition through the factory
  3. Call the loan package (schedule, synthesis, commit)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid loan parameters, unsupported frequency, missing account
  - 404: Template or loan not found
  - 409: Conflict (idempotency key already committed)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/loan-engine/factory"
	"github.com/warp/loan-engine/generic"
	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       *sqlite.Store
	Ledger      generic.Ledger
	LoanFactory *factory.LoanFactory
	Oracle      generic.FrequencyOracle

	// Currency is given to loans that do not name one.
	Currency generic.Currency

	// Today returns the date "current year" and elapsed periods are
	// measured against.
	Today func() generic.TimePoint

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:       store,
		Ledger:      generic.NewLedger(store),
		LoanFactory: factory.NewLoanFactory(),
		Oracle:      generic.CalendarOracle{},
		Currency:    generic.DefaultCurrency,
		Today:       generic.Today,
	}
}

// parseLoan converts a request's loan definition, filling in the default
// currency.
func (h *Handler) parseLoan(lj factory.LoanJSON) (loan.LoanConfig, error) {
	cfg, err := h.LoanFactory.FromJSON(lj)
	if err != nil {
		return cfg, err
	}
	if cfg.Currency == "" {
		cfg.Currency = h.Currency
	}
	return cfg, nil
}

// =============================================================================
// LOAN HANDLERS
// =============================================================================

// BuildSchedule returns the merged payment table of a loan.
func (h *Handler) BuildSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cfg, err := h.parseLoan(req.Loan)
	if err != nil {
		h.fail(w, r, "schedule", err)
		return
	}

	today := h.Today()
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = today
	}
	period, err := loan.RangeFor(req.Range, cfg, h.Oracle, today, generic.Period{Start: req.From, End: req.To})
	if err != nil {
		h.fail(w, r, "schedule", err)
		return
	}

	schedule, err := loan.BuildSchedule(cfg, h.Oracle, period.Start, period.End, asOf)
	if err != nil {
		h.fail(w, r, "schedule", err)
		return
	}
	payment, err := loan.Payment(cfg)
	if err != nil {
		h.fail(w, r, "schedule", err)
		return
	}
	remaining, err := loan.RemainingPeriods(cfg, h.Oracle, asOf)
	if err != nil {
		h.fail(w, r, "schedule", err)
		return
	}
	schedulesBuilt.Inc()

	dto := ScheduleDTO{
		Columns:          schedule.Columns,
		Rows:             make([]ScheduleRowDTO, len(schedule.Rows)),
		RangeStart:       schedule.Range.Start.String(),
		RangeEnd:         schedule.Range.End.String(),
		Payment:          payment.StringFixed(generic.CurrencyPlaces),
		Elapsed:          schedule.Elapsed,
		RemainingPeriods: remaining,
		FinalPayment:     schedule.Final.String(),
	}
	for i, row := range schedule.Rows {
		dto.Rows[i] = toScheduleRowDTO(row)
	}
	writeJSON(w, http.StatusOK, dto)
}

// PreviewTemplates synthesizes a loan's templates without storing them.
func (h *Handler) PreviewTemplates(w http.ResponseWriter, r *http.Request) {
	var req LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cfg, err := h.parseLoan(req.Loan)
	if err != nil {
		h.fail(w, r, "synthesize", err)
		return
	}
	syn, err := loan.Synthesize(cfg, h.Oracle)
	if err != nil {
		h.fail(w, r, "synthesize", err)
		return
	}
	writeJSON(w, http.StatusOK, SynthesisDTO{Templates: toTemplateDTOs(syn.Templates())})
}

// CommitLoan synthesizes a loan, stores its templates in one batch and
// saves the definition.
func (h *Handler) CommitLoan(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = r.Header.Get("Idempotency-Key")
	}

	cfg, err := h.parseLoan(req.Loan)
	if err != nil {
		h.fail(w, r, "commit", err)
		return
	}

	configJSON, err := json.Marshal(req.Loan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode loan", err)
		return
	}
	loanID, syn, err := h.commit(r.Context(), cfg, string(configJSON), key)
	if err != nil {
		h.fail(w, r, "commit", err)
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Str("loan_id", loanID).
		Str("loan", cfg.DisplayName()).
		Int("templates", len(syn.Templates())).
		Msg("loan committed")
	writeJSON(w, http.StatusCreated, CommitResponse{LoanID: loanID, Templates: toTemplateDTOs(syn.Templates())})
}

// commit stores cfg's templates and its definition in one SQL transaction.
func (h *Handler) commit(ctx context.Context, cfg loan.LoanConfig, configJSON, key string) (string, *loan.Synthesis, error) {
	loanID := uuid.NewString()
	record := sqlite.LoanRecord{ID: loanID, Name: cfg.DisplayName(), ConfigJSON: configJSON}
	syn, err := loan.Commit(ctx, generic.NewLedger(h.Store.WithLoan(record)), cfg, h.Oracle, loan.CommitOptions{
		IdempotencyKey: key,
		CreatedAt:      h.Today(),
	})
	if err != nil {
		return "", nil, err
	}
	templatesCommitted.Add(float64(len(syn.Templates())))
	return loanID, syn, nil
}

// ListLoans returns all saved loan definitions.
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListLoans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list loans", err)
		return
	}

	dtos := make([]LoanDTO, 0, len(records))
	for _, rec := range records {
		dto, err := toLoanDTO(rec)
		if err != nil {
			continue // Skip unreadable definitions
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLoan returns one saved loan definition.
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.Store.GetLoan(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get loan", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Loan not found", nil)
		return
	}
	dto, err := toLoanDTO(*rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored loan is unreadable", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func toLoanDTO(rec sqlite.LoanRecord) (LoanDTO, error) {
	dto := LoanDTO{
		ID:        rec.ID,
		Name:      rec.Name,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}
	err := json.Unmarshal([]byte(rec.ConfigJSON), &dto.Config)
	return dto, err
}

// =============================================================================
// SCHEDULED TRANSACTION HANDLERS
// =============================================================================

// ListScheduledTransactions returns every stored template in commit order.
func (h *Handler) ListScheduledTransactions(w http.ResponseWriter, r *http.Request) {
	sts, err := h.Ledger.List(r.Context())
	if err != nil {
		h.fail(w, r, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateDTOs(sts))
}

// GetScheduledTransaction returns one stored template.
func (h *Handler) GetScheduledTransaction(w http.ResponseWriter, r *http.Request) {
	id := generic.TemplateID(chi.URLParam(r, "id"))
	st, err := h.Ledger.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateDTO(st))
}

// =============================================================================
// REPAYMENT OPTION HANDLERS
// =============================================================================

// DefaultRepaymentOptions returns the preset options, disabled and without
// accounts, in the loan JSON shape.
func (h *Handler) DefaultRepaymentOptions(w http.ResponseWriter, r *http.Request) {
	lj := h.LoanFactory.ToJSON(loan.LoanConfig{Options: loan.DefaultOptions()})
	writeJSON(w, http.StatusOK, lj.Options)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps engine errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status, counts it and logs server errors.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	engineErrors.WithLabelValues(op, errorKind(err)).Inc()

	resp := ErrorResponse{Error: err.Error()}
	var argErr *generic.InvalidArgumentError
	if errors.As(err, &argErr) {
		resp.Field = argErr.Field
	}
	var accErr *generic.AccountRequiredError
	if errors.As(err, &accErr) {
		resp.Field = accErr.Role
	}

	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("op", op).Msg("request failed")
		resp.Error = "Internal error"
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
