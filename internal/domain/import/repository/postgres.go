package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the pgx surface the store needs; pgxpool.Pool and pgxmock both
// satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const (
	insertExpenseSQL = `
		INSERT INTO expenses (id, user_id, date, description, amount, currency, category, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	insertIncomeSQL = `
		INSERT INTO incomes (id, user_id, date, description, amount, currency, client, kind)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
)

// PostgresStore persists expense and income records through pgx.
type PostgresStore struct {
	db     DB
	logger *slog.Logger
}

// NewPostgresStore creates a record store over the given pool.
func NewPostgresStore(db DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (s *PostgresStore) InsertExpense(ctx context.Context, record *ExpenseRecord) error {
	ensureID(&record.ID)
	_, err := s.db.Exec(ctx, insertExpenseSQL,
		record.ID, record.UserID, record.Date, record.Description,
		record.Amount, record.Currency, record.Category, record.Confidence,
	)
	return err
}

func (s *PostgresStore) InsertIncome(ctx context.Context, record *IncomeRecord) error {
	ensureID(&record.ID)
	_, err := s.db.Exec(ctx, insertIncomeSQL,
		record.ID, record.UserID, record.Date, record.Description,
		record.Amount, record.Currency, record.Client, record.Kind,
	)
	return err
}

// BulkInsertExpenses queues all rows into one pgx batch: a single network
// round trip. Individual statement failures are logged and reflected in
// the inserted count, not returned as a batch error.
func (s *PostgresStore) BulkInsertExpenses(ctx context.Context, records []*ExpenseRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		ensureID(&record.ID)
		batch.Queue(insertExpenseSQL,
			record.ID, record.UserID, record.Date, record.Description,
			record.Amount, record.Currency, record.Category, record.Confidence,
		)
	}

	return s.runBatch(ctx, batch, len(records))
}

// BulkInsertIncomes mirrors BulkInsertExpenses for income rows.
func (s *PostgresStore) BulkInsertIncomes(ctx context.Context, records []*IncomeRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		ensureID(&record.ID)
		batch.Queue(insertIncomeSQL,
			record.ID, record.UserID, record.Date, record.Description,
			record.Amount, record.Currency, record.Client, record.Kind,
		)
	}

	return s.runBatch(ctx, batch, len(records))
}

func (s *PostgresStore) runBatch(ctx context.Context, batch *pgx.Batch, queued int) (int, error) {
	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for i := 0; i < queued; i++ {
		if _, err := results.Exec(); err != nil {
			s.logger.Warn("bulk insert row failed", "row", i, "error", err)
			continue
		}
		inserted++
	}
	return inserted, nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
