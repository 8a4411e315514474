// Package service orchestrates the statement import pipeline: validation,
// rate limiting, tokenization, parsing, categorization and bulk insertion.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dinarly/dinarly-api/internal/domain/categorization"
	"github.com/dinarly/dinarly-api/internal/domain/import/repository"
	"github.com/dinarly/dinarly-api/internal/domain/ratelimit"
	"github.com/dinarly/dinarly-api/internal/domain/security"
	"github.com/dinarly/dinarly-api/internal/domain/statement"
	"github.com/dinarly/dinarly-api/pkg/metrics"
	"github.com/dinarly/dinarly-api/pkg/money"
	"github.com/dinarly/dinarly-api/pkg/storage"
)

// minRowFields is the column count a statement row must have:
// DATUM, TIP TRANSAKCIJE, OPIS, IZNOS.
const minRowFields = 4

// Column positions within a statement row. TIP TRANSAKCIJE is unused.
const (
	colDate        = 0
	colDescription = 2
	colAmount      = 3
)

// ImportResult aggregates one import batch. Per-row failure reasons are
// reported as "line N: reason" strings alongside the counts. Totals are
// display-formatted sums of the batch sent to the store, keyed by
// currency code.
type ImportResult struct {
	SuccessCount int
	FailureCount int
	Errors       []string
	TotalDebits  map[string]string
	TotalCredits map[string]string
}

// ImportService drives the pipeline over every row of an uploaded file.
// Rows are processed independently: a bad row is counted and skipped,
// never aborting the batch. All collaborators are injected; the service
// holds no ambient state.
type ImportService struct {
	validator *security.Validator
	limiter   *ratelimit.WindowLimiter
	parser    *statement.RowParser
	engine    *categorization.RuleEngine
	extractor *categorization.ClientExtractor
	store     repository.RecordStore
	audit     *security.AuditLogger
	archive   storage.Archive // optional
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewImportService wires the pipeline together.
func NewImportService(
	validator *security.Validator,
	limiter *ratelimit.WindowLimiter,
	parser *statement.RowParser,
	engine *categorization.RuleEngine,
	extractor *categorization.ClientExtractor,
	store repository.RecordStore,
	audit *security.AuditLogger,
	logger *slog.Logger,
) *ImportService {
	return &ImportService{
		validator: validator,
		limiter:   limiter,
		parser:    parser,
		engine:    engine,
		extractor: extractor,
		store:     store,
		audit:     audit,
		logger:    logger,
		tracer:    otel.Tracer("import"),
	}
}

// WithArchive attaches a raw-upload archive. Archiving failures are logged
// and never fail an import.
func (s *ImportService) WithArchive(archive storage.Archive) *ImportService {
	s.archive = archive
	return s
}

func (s *ImportService) archiveUpload(ctx context.Context, userID uuid.UUID, filename string, content []byte) {
	if s.archive == nil {
		return
	}
	if _, err := s.archive.Save(ctx, userID, filename, content); err != nil {
		s.logger.Warn("failed to archive upload", "user_id", userID, "error", err)
	}
}

// ImportStatement runs the whole pipeline over a raw CSV export. Fatal
// failures (oversized/malicious content, missing header, rate limit) abort
// before any row is processed; everything after that is row-local.
func (s *ImportService) ImportStatement(ctx context.Context, userID uuid.UUID, content string) (*ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "ImportStatement",
		trace.WithAttributes(attribute.Int("content_length", len(content))))
	defer span.End()

	if err := s.validator.Validate(ctx, userID, content); err != nil {
		metrics.ImportsTotal.WithLabelValues("validation_failed").Inc()
		return nil, err
	}

	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	s.archiveUpload(ctx, userID, "statement.csv", []byte(content))

	lines := statement.SplitLines(content)
	headerIdx, err := statement.FindHeader(lines)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	fieldRows := make([][]string, 0, len(lines)-headerIdx-1)
	lineNums := make([]int, 0, len(lines)-headerIdx-1)
	for i := headerIdx + 1; i < len(lines); i++ {
		if lines[i] == "" {
			continue
		}
		fieldRows = append(fieldRows, statement.SplitFields(lines[i]))
		lineNums = append(lineNums, i+1)
	}

	return s.importRows(ctx, userID, fieldRows, lineNums)
}

// ImportWorkbook runs the pipeline over an xlsx export carrying the same
// columns. Cells arrive pre-tokenized, so the tokenizer step is skipped.
func (s *ImportService) ImportWorkbook(ctx context.Context, userID uuid.UUID, data []byte) (*ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "ImportWorkbook",
		trace.WithAttributes(attribute.Int("content_length", len(data))))
	defer span.End()

	if err := s.validator.Validate(ctx, userID, string(data)); err != nil {
		metrics.ImportsTotal.WithLabelValues("validation_failed").Inc()
		return nil, err
	}

	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	s.archiveUpload(ctx, userID, "statement.xlsx", data)

	rows, err := statement.RowsFromXLSX(data)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	headerIdx, err := statement.FindHeaderRow(rows)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	fieldRows := make([][]string, 0, len(rows)-headerIdx-1)
	lineNums := make([]int, 0, len(rows)-headerIdx-1)
	for i := headerIdx + 1; i < len(rows); i++ {
		fieldRows = append(fieldRows, rows[i])
		lineNums = append(lineNums, i+1)
	}

	return s.importRows(ctx, userID, fieldRows, lineNums)
}

// allow consumes one rate-limit slot, auditing a rejection.
func (s *ImportService) allow(ctx context.Context, userID uuid.UUID) error {
	if err := s.limiter.Allow(userID); err != nil {
		s.audit.Event(ctx, "import_rate_limited", map[string]any{
			"user_id": userID.String(),
		})
		metrics.ImportsTotal.WithLabelValues("rate_limited").Inc()
		return err
	}
	return nil
}

// importRows folds the pipeline over tokenized rows and bulk-inserts the
// survivors, one round trip per record kind.
func (s *ImportService) importRows(ctx context.Context, userID uuid.UUID, fieldRows [][]string, lineNums []int) (*ImportResult, error) {
	result := &ImportResult{}

	var expenses []*repository.ExpenseRecord
	var incomes []*repository.IncomeRecord
	debits := map[money.Currency]*money.Money{}
	credits := map[money.Currency]*money.Money{}

	for i, fields := range fieldRows {
		lineNum := lineNums[i]

		if len(fields) < minRowFields {
			s.failRow(result, lineNum, fmt.Errorf("expected %d columns, got %d", minRowFields, len(fields)))
			continue
		}

		row, err := s.parser.ParseRow(fields[colDate], fields[colDescription], fields[colAmount])
		if err != nil {
			s.failRow(result, lineNum, err)
			continue
		}

		switch row.Direction {
		case statement.Debit:
			amount := row.Amount
			suggestion := s.engine.Classify(ctx, userID, row.Description, &amount)
			expenses = append(expenses, &repository.ExpenseRecord{
				UserID:      userID,
				Date:        row.Date,
				Description: row.Description,
				Amount:      row.Amount,
				Currency:    row.Currency,
				Category:    suggestion.Category,
				Confidence:  suggestion.Confidence,
			})
			addTotal(debits, row)
		case statement.Credit:
			client := s.extractor.Extract(row.Description)
			incomes = append(incomes, &repository.IncomeRecord{
				UserID:      userID,
				Date:        row.Date,
				Description: row.Description,
				Amount:      row.Amount,
				Currency:    row.Currency,
				Client:      client.Client,
				Kind:        client.Kind,
			})
			addTotal(credits, row)
		}
	}

	if len(expenses) > 0 {
		inserted, err := s.store.BulkInsertExpenses(ctx, expenses)
		s.recordInsertOutcome(result, "expenses", len(expenses), inserted, err)
		if err == nil {
			result.TotalDebits = displayTotals(debits)
		}
	}
	if len(incomes) > 0 {
		inserted, err := s.store.BulkInsertIncomes(ctx, incomes)
		s.recordInsertOutcome(result, "incomes", len(incomes), inserted, err)
		if err == nil {
			result.TotalCredits = displayTotals(credits)
		}
	}

	metrics.ImportsTotal.WithLabelValues(importOutcome(result)).Inc()
	metrics.RowsTotal.WithLabelValues("inserted").Add(float64(result.SuccessCount))
	metrics.RowsTotal.WithLabelValues("failed").Add(float64(result.FailureCount))

	s.logger.Info("statement import finished",
		"user_id", userID,
		"succeeded", result.SuccessCount,
		"failed", result.FailureCount,
	)

	return result, nil
}

// addTotal folds one row's amount into the per-currency running total.
// Currencies never mix inside a bucket, so Add cannot fail here.
func addTotal(totals map[money.Currency]*money.Money, row *statement.Row) {
	value := money.FromDecimal(row.Amount, row.Currency)
	current, ok := totals[row.Currency]
	if !ok {
		totals[row.Currency] = value
		return
	}
	if sum, err := current.Add(value); err == nil {
		totals[row.Currency] = sum
	}
}

// displayTotals renders running totals for the import response.
func displayTotals(totals map[money.Currency]*money.Money) map[string]string {
	if len(totals) == 0 {
		return nil
	}
	out := make(map[string]string, len(totals))
	for currency, total := range totals {
		out[currency.String()] = total.Display()
	}
	return out
}

// importOutcome reduces a finished batch to a metrics label.
func importOutcome(result *ImportResult) string {
	switch {
	case result.SuccessCount == 0 && result.FailureCount > 0:
		return "failed"
	case result.FailureCount > 0:
		return "partial"
	default:
		return "succeeded"
	}
}

// failRow counts one row-local failure. The reason is kept in the result
// and logged; it never aborts the batch.
func (s *ImportService) failRow(result *ImportResult, lineNum int, err error) {
	result.FailureCount++
	result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
	s.logger.Debug("statement row skipped", "line", lineNum, "error", err)
}

// recordInsertOutcome reduces a bulk-insert outcome to counts. A batch
// error degrades to all-rows-failed for that attempt; otherwise the store's
// inserted count is trusted and the shortfall counted as failures.
func (s *ImportService) recordInsertOutcome(result *ImportResult, kind string, attempted, inserted int, err error) {
	if err != nil {
		result.FailureCount += attempted
		result.Errors = append(result.Errors, fmt.Sprintf("bulk insert %s: %v", kind, err))
		s.logger.Warn("bulk insert failed", "kind", kind, "attempted", attempted, "error", err)
		return
	}

	result.SuccessCount += inserted
	if shortfall := attempted - inserted; shortfall > 0 {
		result.FailureCount += shortfall
		result.Errors = append(result.Errors, fmt.Sprintf("bulk insert %s: %d of %d rows rejected", kind, shortfall, attempted))
	}
}

// LearnCorrection records a user's category override so future imports
// classify the same (or a near-duplicate) description their way.
func (s *ImportService) LearnCorrection(ctx context.Context, userID uuid.UUID, description, category string) error {
	return s.engine.Learn(ctx, userID, description, category)
}

// ExportStatement re-renders a raw statement as normalized CSV (ISO dates,
// dot decimals, explicit direction) without storing anything. Rows that
// fail to parse are skipped. Export does not consume an import slot.
func (s *ImportService) ExportStatement(ctx context.Context, userID uuid.UUID, content string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "ExportStatement",
		trace.WithAttributes(attribute.Int("content_length", len(content))))
	defer span.End()

	if err := s.validator.Validate(ctx, userID, content); err != nil {
		return "", err
	}

	lines := statement.SplitLines(content)
	headerIdx, err := statement.FindHeader(lines)
	if err != nil {
		return "", err
	}

	var rows []*statement.Row
	for i := headerIdx + 1; i < len(lines); i++ {
		if lines[i] == "" {
			continue
		}
		fields := statement.SplitFields(lines[i])
		if len(fields) < minRowFields {
			continue
		}
		row, err := s.parser.ParseRow(fields[colDate], fields[colDescription], fields[colAmount])
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}

	return statement.ExportCSV(rows)
}
