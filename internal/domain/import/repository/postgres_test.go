package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinarly/dinarly-api/internal/domain/categorization"
	"github.com/dinarly/dinarly-api/pkg/money"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testExpense(userID uuid.UUID) *ExpenseRecord {
	return &ExpenseRecord{
		UserID:      userID,
		Date:        time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Description: "WOLT DOO BEOGRAD",
		Amount:      decimal.RequireFromString("1619.32"),
		Currency:    money.RSD,
		Category:    "food-delivery",
		Confidence:  categorization.ConfidenceHigh,
	}
}

func TestPostgresStore_InsertExpense(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock, testLogger())
	userID := uuid.New()
	record := testExpense(userID)

	mock.ExpectExec(`INSERT INTO expenses`).
		WithArgs(pgxmock.AnyArg(), userID, record.Date, record.Description,
			record.Amount, record.Currency, record.Category, record.Confidence).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.InsertExpense(context.Background(), record))
	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_BulkInsertExpenses(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("queues all rows into one batch", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := NewPostgresStore(mock, testLogger())
		records := []*ExpenseRecord{testExpense(userID), testExpense(userID)}

		batch := mock.ExpectBatch()
		for range records {
			batch.ExpectExec(`INSERT INTO expenses`).
				WithArgs(pgxmock.AnyArg(), userID, records[0].Date, records[0].Description,
					records[0].Amount, records[0].Currency, records[0].Category, records[0].Confidence).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}

		inserted, err := store.BulkInsertExpenses(ctx, records)
		require.NoError(t, err)
		assert.Equal(t, 2, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row failure is counted out, not returned", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := NewPostgresStore(mock, testLogger())
		records := []*ExpenseRecord{testExpense(userID), testExpense(userID)}

		batch := mock.ExpectBatch()
		batch.ExpectExec(`INSERT INTO expenses`).
			WithArgs(pgxmock.AnyArg(), userID, records[0].Date, records[0].Description,
				records[0].Amount, records[0].Currency, records[0].Category, records[0].Confidence).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		batch.ExpectExec(`INSERT INTO expenses`).
			WithArgs(pgxmock.AnyArg(), userID, records[1].Date, records[1].Description,
				records[1].Amount, records[1].Currency, records[1].Category, records[1].Confidence).
			WillReturnError(errors.New("duplicate key"))

		inserted, err := store.BulkInsertExpenses(ctx, records)
		require.NoError(t, err)
		assert.Equal(t, 1, inserted)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := NewPostgresStore(mock, testLogger())
		inserted, err := store.BulkInsertExpenses(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, inserted)
	})
}

func TestPostgresStore_BulkInsertIncomes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock, testLogger())
	userID := uuid.New()
	record := &IncomeRecord{
		UserID:      userID,
		Date:        time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Description: "UPWORK PAYMENT REF12345",
		Amount:      decimal.RequireFromString("50000"),
		Currency:    money.RSD,
		Client:      "Upwork",
		Kind:        categorization.IncomeFullTime,
	}

	batch := mock.ExpectBatch()
	batch.ExpectExec(`INSERT INTO incomes`).
		WithArgs(pgxmock.AnyArg(), userID, record.Date, record.Description,
			record.Amount, record.Currency, record.Client, record.Kind).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := store.BulkInsertIncomes(context.Background(), []*IncomeRecord{record})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
