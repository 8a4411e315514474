package repository

import (
	"context"
	"sync"
)

// MemoryStore is an in-process RecordStore for tests and local runs. The
// FailExpense/FailIncome hooks simulate per-row store rejections.
type MemoryStore struct {
	mu       sync.Mutex
	Expenses []*ExpenseRecord
	Incomes  []*IncomeRecord

	FailExpense func(record *ExpenseRecord) error
	FailIncome  func(record *IncomeRecord) error
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) InsertExpense(_ context.Context, record *ExpenseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailExpense != nil {
		if err := s.FailExpense(record); err != nil {
			return err
		}
	}
	ensureID(&record.ID)
	s.Expenses = append(s.Expenses, record)
	return nil
}

func (s *MemoryStore) InsertIncome(_ context.Context, record *IncomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailIncome != nil {
		if err := s.FailIncome(record); err != nil {
			return err
		}
	}
	ensureID(&record.ID)
	s.Incomes = append(s.Incomes, record)
	return nil
}

func (s *MemoryStore) BulkInsertExpenses(ctx context.Context, records []*ExpenseRecord) (int, error) {
	inserted := 0
	for _, record := range records {
		if err := s.InsertExpense(ctx, record); err != nil {
			continue
		}
		inserted++
	}
	return inserted, nil
}

func (s *MemoryStore) BulkInsertIncomes(ctx context.Context, records []*IncomeRecord) (int, error) {
	inserted := 0
	for _, record := range records {
		if err := s.InsertIncome(ctx, record); err != nil {
			continue
		}
		inserted++
	}
	return inserted, nil
}
