// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/loan-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	templates   []generic.ScheduledTransaction
	byID        map[generic.TemplateID]int
	idempotency map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		byID:        make(map[generic.TemplateID]int),
		idempotency: make(map[string]bool),
	}
}

var _ generic.Store = (*Memory)(nil)

// Append adds a single template. Append-only.
func (m *Memory) Append(ctx context.Context, st generic.ScheduledTransaction) error {
	return m.AppendBatch(ctx, []generic.ScheduledTransaction{st})
}

// AppendBatch adds multiple templates atomically.
func (m *Memory) AppendBatch(_ context.Context, sts []generic.ScheduledTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check everything first (atomic check)
	keys := make(map[string]bool, len(sts))
	ids := make(map[generic.TemplateID]bool, len(sts))
	for _, st := range sts {
		if st.ID == "" {
			return fmt.Errorf("%w: template %q has no id", generic.ErrTransactionFailed, st.Name)
		}
		if _, ok := m.byID[st.ID]; ok || ids[st.ID] {
			return fmt.Errorf("%w: id %s already stored", generic.ErrTransactionFailed, st.ID)
		}
		ids[st.ID] = true
		if st.IdempotencyKey == "" {
			continue
		}
		if m.idempotency[st.IdempotencyKey] || keys[st.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		keys[st.IdempotencyKey] = true
	}

	// Append all (atomic write)
	for _, st := range sts {
		m.byID[st.ID] = len(m.templates)
		m.templates = append(m.templates, clone(st))
		if st.IdempotencyKey != "" {
			m.idempotency[st.IdempotencyKey] = true
		}
	}
	return nil
}

func (m *Memory) Load(_ context.Context, id generic.TemplateID) (generic.ScheduledTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byID[id]
	if !ok {
		return generic.ScheduledTransaction{}, fmt.Errorf("%w: %s", generic.ErrTemplateNotFound, id)
	}
	return clone(m.templates[i]), nil
}

func (m *Memory) List(_ context.Context) ([]generic.ScheduledTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.ScheduledTransaction, len(m.templates))
	for i, st := range m.templates {
		result[i] = clone(st)
	}
	return result, nil
}

func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}

// clone copies the body and split slices so callers cannot reach into
// stored state.
func clone(st generic.ScheduledTransaction) generic.ScheduledTransaction {
	bodies := make([]generic.TemplateTransaction, len(st.Transactions))
	for i, body := range st.Transactions {
		body.Splits = append([]generic.TemplateSplit(nil), body.Splits...)
		bodies[i] = body
	}
	st.Transactions = bodies
	return st
}
