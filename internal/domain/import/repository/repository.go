// Package repository defines the statement record store: the external
// collaborator the import pipeline hands typed records to.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dinarly/dinarly-api/internal/domain/categorization"
	"github.com/dinarly/dinarly-api/pkg/money"
)

// ExpenseRecord is one categorized expense ready for storage.
type ExpenseRecord struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Currency    money.Currency
	Category    string
	Confidence  categorization.Confidence
	CreatedAt   time.Time
}

// IncomeRecord is one income row with its extracted counterparty.
type IncomeRecord struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Currency    money.Currency
	Client      string
	Kind        categorization.IncomeKind
	CreatedAt   time.Time
}

// RecordStore is the persistence collaborator. Bulk inserts are a single
// round trip per batch; implementations preserve row-level error
// granularity where they can, reporting how many rows actually landed.
// A non-nil error means the whole batch failed.
type RecordStore interface {
	InsertExpense(ctx context.Context, record *ExpenseRecord) error
	InsertIncome(ctx context.Context, record *IncomeRecord) error
	BulkInsertExpenses(ctx context.Context, records []*ExpenseRecord) (int, error)
	BulkInsertIncomes(ctx context.Context, records []*IncomeRecord) (int, error)
}
