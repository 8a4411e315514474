// Package e2etest exercises the statement import pipeline end to end:
// raw bank-export text in, typed records in the store out.
package e2etest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinarly/dinarly-api/internal/domain/categorization"
	"github.com/dinarly/dinarly-api/internal/domain/import/repository"
	importservice "github.com/dinarly/dinarly-api/internal/domain/import/service"
	"github.com/dinarly/dinarly-api/internal/domain/ratelimit"
	"github.com/dinarly/dinarly-api/internal/domain/security"
	"github.com/dinarly/dinarly-api/internal/domain/statement"
	"github.com/dinarly/dinarly-api/pkg/money"
)

type pipeline struct {
	service *importservice.ImportService
	engine  *categorization.RuleEngine
	store   *repository.MemoryStore
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	audit := security.NewAuditLogger(logger)
	learner := categorization.NewCorrectionLearner(categorization.NewMemoryStore(), 0, logger)
	engine := categorization.NewRuleEngine(categorization.DefaultExpenseRules(), learner, logger)
	store := repository.NewMemoryStore()

	svc := importservice.NewImportService(
		security.NewValidator(0, 0, audit),
		ratelimit.NewWindowLimiter(10, time.Hour),
		statement.NewRowParser(),
		engine,
		categorization.NewClientExtractor(),
		store,
		audit,
		logger,
	)
	return &pipeline{service: svc, engine: engine, store: store}
}

func statementFile(rows ...string) string {
	lines := append([]string{
		"Banka Intesa a.d. Beograd",
		"Izvod br. 7 za period 01.06.2025 - 31.07.2025",
		"",
		"DATUM,TIP TRANSAKCIJE,OPIS,IZNOS",
	}, rows...)
	return strings.Join(lines, "\r\n")
}

// A card purchase on Upwork lands as a categorized expense.
func TestImport_UpworkCardPurchase(t *testing.T) {
	p := newPipeline(t)

	result, err := p.service.ImportStatement(context.Background(), uuid.New(), statementFile(
		`01.07.2025,PLAĆANJE KARTICOM,Kupovina Upwork -822939118REF,"- 5.102,96 RSD"`,
	))
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessCount)

	record := p.store.Expenses[0]
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), record.Date)
	assert.Equal(t, "Upwork -822939118REF", record.Description)
	assert.Equal(t, "5102.96", record.Amount.String())
	assert.Equal(t, money.RSD, record.Currency)
	assert.Equal(t, "office-supplies", record.Category)
}

// A Wolt purchase resolves to the food-delivery bucket.
func TestImport_WoltCardPurchase(t *testing.T) {
	p := newPipeline(t)

	result, err := p.service.ImportStatement(context.Background(), uuid.New(), statementFile(
		`30.06.2025,PLAĆANJE KARTICOM,Kupovina Wolt doo,"- 1.619,32 RSD"`,
	))
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessCount)

	record := p.store.Expenses[0]
	assert.Equal(t, "food-delivery", record.Category)
	assert.Equal(t, "1619.32", record.Amount.String())
}

// An Upwork payment lands as full-time income with the platform as client.
func TestImport_UpworkIncome(t *testing.T) {
	p := newPipeline(t)

	result, err := p.service.ImportStatement(context.Background(), uuid.New(), statementFile(
		`01.07.2025,UPLATA,Upwork Payment REF12345,"+ 50.000,00 RSD"`,
	))
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessCount)

	record := p.store.Incomes[0]
	assert.Equal(t, "50000", record.Amount.String())
	assert.Equal(t, money.RSD, record.Currency)
	assert.Equal(t, "Upwork", record.Client)
	assert.Equal(t, categorization.IncomeFullTime, record.Kind)
}

// EUR amounts keep their currency through the pipeline.
func TestImport_EuroAmount(t *testing.T) {
	p := newPipeline(t)

	result, err := p.service.ImportStatement(context.Background(), uuid.New(), statementFile(
		`15.06.2025,PLAĆANJE KARTICOM,HETZNER ONLINE,"- 2.495,51 EUR"`,
	))
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessCount)

	record := p.store.Expenses[0]
	assert.Equal(t, money.EUR, record.Currency)
	assert.Equal(t, "2495.51", record.Amount.String())
}

// A malformed two-column line is skipped, counted, and never fatal.
func TestImport_MalformedLineSkipped(t *testing.T) {
	p := newPipeline(t)

	result, err := p.service.ImportStatement(context.Background(), uuid.New(), statementFile(
		`30.06.2025,PLAĆANJE KARTICOM,Kupovina Wolt doo,"- 1.619,32 RSD"`,
		`garbage,two columns only`,
	))
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "line 6")
}

// A script substring anywhere fails validation before any row is parsed.
func TestImport_ScriptContentRejected(t *testing.T) {
	p := newPipeline(t)

	result, err := p.service.ImportStatement(context.Background(), uuid.New(), statementFile(
		`30.06.2025,PROMET,Kupovina Wolt doo,"- 1.619,32 RSD"`,
		`01.07.2025,PROMET,payload <script src="x"></script>,"- 1,00"`,
	))
	assert.ErrorIs(t, err, security.ErrMaliciousContent)
	assert.Nil(t, result)
	assert.Empty(t, p.store.Expenses)
	assert.Empty(t, p.store.Incomes)
}

// A learned correction redirects classification on the next import.
func TestImport_CorrectionChangesNextImport(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := p.service.ImportStatement(ctx, userID, statementFile(
		`30.06.2025,PLAĆANJE KARTICOM,Kupovina Wolt doo,"- 1.619,32 RSD"`,
	))
	require.NoError(t, err)
	require.Equal(t, "food-delivery", p.store.Expenses[0].Category)

	require.NoError(t, p.service.LearnCorrection(ctx, userID, "Wolt doo", "meals"))

	_, err = p.service.ImportStatement(ctx, userID, statementFile(
		`01.07.2025,PLAĆANJE KARTICOM,Kupovina Wolt doo,"- 980,00 RSD"`,
	))
	require.NoError(t, err)
	require.Len(t, p.store.Expenses, 2)
	assert.Equal(t, "meals", p.store.Expenses[1].Category)
	assert.Equal(t, categorization.ConfidenceHigh, p.store.Expenses[1].Confidence)
}
