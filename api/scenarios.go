/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built loans that populate the database with realistic
	templates for testing and demos. Each scenario commits one loan through
	the same path as POST /api/loans/commit.

AVAILABLE SCENARIOS:

	mortgage-escrow:  30-year mortgage, taxes and insurance through escrow
	mid-term:         Same mortgage resumed five years in
	auto-loan:        60-month car loan with a monthly extra, no escrow
	interest-free:    12-month 0% plan (straight-line repayment)

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Parse the loan JSON via factory
 3. Commit: synthesize, append templates, save the definition

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mortgage-escrow"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add its loan JSON to scenarioLoans

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: CommitLoan shares the commit path
  - factory/loan.go: Loan JSON schema
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/loan-engine/factory"
	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "mortgage-escrow",
		Name:        "Mortgage with Escrow",
		Description: "200,000 at 6% over 30 years; taxes monthly and insurance yearly through escrow",
		Category:    "mortgage",
	},
	{
		ID:          "mid-term",
		Name:        "Mortgage Resumed Mid-Term",
		Description: "Same mortgage entered five years in: 300 payments remaining",
		Category:    "mortgage",
	},
	{
		ID:          "auto-loan",
		Name:        "Auto Loan",
		Description: "25,000 at 5.9% over 60 months plus a monthly GAP insurance payment",
		Category:    "consumer",
	},
	{
		ID:          "interest-free",
		Name:        "Interest-Free Plan",
		Description: "1,200 at 0% over 12 months",
		Category:    "consumer",
	},
}

const mortgageAccounts = `"accounts": {
		"primary": "Liabilities:Mortgage",
		"from": "Assets:Checking",
		"interest": "Expenses:Mortgage Interest",
		"escrow": "Assets:Escrow"
	}`

const mortgageOptions = `"options": [
		{"name": "Taxes", "amount": "250", "through_escrow": true, "destination": "Expenses:Property Tax"},
		{"name": "Insurance", "amount": "1200", "through_escrow": true, "destination": "Expenses:Home Insurance",
		 "frequency": {"kind": "annual"}, "start_date": "2025-06-01"},
		{"name": "PMI", "enabled": false, "amount": "0", "destination": "Expenses:PMI"}
	]`

var scenarioLoans = map[string]string{
	"mortgage-escrow": `{
	"name": "Mortgage",
	"principal": "200000",
	"annual_rate_percent": "6",
	"term_count": 30,
	"term_unit": "years",
	"start_date": "2025-01-01",
	"frequency": {"kind": "monthly", "day_of_month": 1},
	` + mortgageAccounts + `,
	` + mortgageOptions + `
}`,
	"mid-term": `{
	"name": "Mortgage",
	"principal": "200000",
	"annual_rate_percent": "6",
	"term_count": 30,
	"term_unit": "years",
	"remaining_periods": 300,
	"start_date": "2020-01-01",
	"repayment_start": "2025-01-01",
	"frequency": {"kind": "monthly", "day_of_month": 1},
	` + mortgageAccounts + `,
	` + mortgageOptions + `
}`,
	"auto-loan": `{
	"name": "Car Loan",
	"principal": "25000",
	"annual_rate_percent": "5.9",
	"term_count": 60,
	"term_unit": "months",
	"start_date": "2025-02-15",
	"frequency": {"kind": "monthly", "day_of_month": 15},
	"accounts": {
		"from": "Assets:Checking",
		"principal": "Liabilities:Car Loan",
		"interest": "Expenses:Auto Interest"
	},
	"options": [
		{"name": "Other Expense", "memo": "GAP Insurance", "amount": "18.50", "destination": "Expenses:Auto Insurance"}
	]
}`,
	"interest-free": `{
	"name": "Furniture",
	"principal": "1200",
	"annual_rate_percent": "0",
	"term_count": 12,
	"term_unit": "months",
	"start_date": "2025-03-01",
	"accounts": {
		"from": "Assets:Checking",
		"principal": "Liabilities:Store Credit",
		"interest": "Expenses:Interest"
	}
}`,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and commits a predefined loan.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, ok := scenarioLoans[req.ScenarioID]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	syn, err := h.loadScenario(ctx, req.ScenarioID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "loaded",
		"scenario":  req.ScenarioID,
		"templates": len(syn.Templates()),
	})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) reset(ctx context.Context) error {
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadScenario commits the scenario's loan under the idempotency key
// "scenario/<id>".
func (h *Handler) loadScenario(ctx context.Context, id string) (*loan.Synthesis, error) {
	jsonStr, ok := scenarioLoans[id]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", id)
	}
	var lj factory.LoanJSON
	if err := json.Unmarshal([]byte(jsonStr), &lj); err != nil {
		return nil, err
	}
	cfg, err := h.parseLoan(lj)
	if err != nil {
		return nil, err
	}

	_, syn, err := h.commit(ctx, cfg, jsonStr, "scenario/"+id)
	return syn, err
}
