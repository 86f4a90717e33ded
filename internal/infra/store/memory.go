// Package store holds RecordStore adapters that live next to the service:
// an in-process map for development and tests, and PostgreSQL.
package store

import (
	"context"
	"sync"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
)

// Memory is a process-local RecordStore. Values are deep-copied on the way
// in and out so callers never share slices with the store.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*domain.FinancialRecordSet
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*domain.FinancialRecordSet)}
}

// Load returns a copy of the user's records or *domain.ErrNotFound.
func (m *Memory) Load(_ context.Context, userID string) (*domain.FinancialRecordSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "records", ID: userID}
	}
	return cloneRecords(r), nil
}

// Save replaces the user's records with a copy of records.
func (m *Memory) Save(_ context.Context, userID string, records *domain.FinancialRecordSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[userID] = cloneRecords(records)
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

func cloneRecords(r *domain.FinancialRecordSet) *domain.FinancialRecordSet {
	if r == nil {
		return &domain.FinancialRecordSet{}
	}
	return &domain.FinancialRecordSet{
		IncomeSources: append([]domain.IncomeSource(nil), r.IncomeSources...),
		Expenses:      append([]domain.Expense(nil), r.Expenses...),
		Savings:       append([]domain.SavingsAccount(nil), r.Savings...),
		Debts:         append([]domain.Debt(nil), r.Debts...),
		Currency:      r.Currency,
	}
}
