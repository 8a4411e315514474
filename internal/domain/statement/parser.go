package statement

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dinarly/dinarly-api/pkg/money"
)

// Direction says which side of the account a row touches.
type Direction int

const (
	// Debit is money out: the expense pipeline.
	Debit Direction = iota
	// Credit is money in: the income pipeline.
	Credit
)

// Row is one parsed statement row. Amounts are always positive; Direction
// carries what the sign marker said.
type Row struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Currency    money.Currency
	Direction   Direction
}

// Row-local parse failures. The orchestrator counts these and moves on.
var (
	ErrBadDate          = errors.New("statement: invalid date")
	ErrBadAmount        = errors.New("statement: invalid amount")
	ErrAmountOutOfRange = errors.New("statement: amount out of range")
	ErrEmptyDescription = errors.New("statement: empty description")
)

const (
	minYear = 1900
	// maxAmount bounds the absolute value a single row may carry.
	maxAmountMajorUnits = 1_000_000_000
)

var (
	datePattern = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})$`)
	// Serbian locale: "." groups thousands, "," separates exactly two
	// decimals. Anchored so a malformed field like "12,345" is rejected
	// instead of truncating to its first partial match.
	amountPattern  = regexp.MustCompile(`^(\d{1,3}(?:\.\d{3})*|\d+),(\d{2})$`)
	currencyTokens = regexp.MustCompile(`(?i)(RSD|USD|EUR)`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// RowParser converts raw field tuples into typed rows. The clock is
// injectable so the year upper bound is testable.
type RowParser struct {
	now func() time.Time
}

// NewRowParser creates a parser using the wall clock.
func NewRowParser() *RowParser {
	return &RowParser{now: time.Now}
}

// NewRowParserAt creates a parser with a fixed clock, for tests.
func NewRowParserAt(now func() time.Time) *RowParser {
	return &RowParser{now: now}
}

// ParseRow parses the date, description and amount fields of one statement
// row. Any failure is row-local: the caller skips the row and keeps going.
func (p *RowParser) ParseRow(dateField, descriptionField, amountField string) (*Row, error) {
	date, err := p.parseDate(dateField)
	if err != nil {
		return nil, err
	}

	description := CleanDescription(descriptionField)
	if description == "" {
		return nil, ErrEmptyDescription
	}

	amount, currency, direction, err := parseAmount(amountField)
	if err != nil {
		return nil, err
	}

	return &Row{
		Date:        date,
		Description: description,
		Amount:      amount,
		Currency:    currency,
		Direction:   direction,
	}, nil
}

// parseDate accepts DD.MM.YYYY only, validates the calendar date without
// rollover and bounds the year to [1900, currentYear+1].
func (p *RowParser) parseDate(field string) (time.Time, error) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(field))
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, field)
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if year < minYear || year > p.now().Year()+1 {
		return time.Time{}, fmt.Errorf("%w: year %d out of range", ErrBadDate, year)
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31.02 to 02/03 or 03/03; reject anything that moved.
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrBadDate, field)
	}

	return date, nil
}

// parseAmount extracts the positive decimal value, the currency and the
// direction from a raw amount field like `"- 5.102,96 RSD"`.
func parseAmount(field string) (decimal.Decimal, money.Currency, Direction, error) {
	raw := strings.TrimSpace(field)
	raw = strings.Trim(raw, `"`)
	raw = strings.TrimSpace(raw)

	direction := Credit
	switch {
	case strings.HasPrefix(raw, "-"):
		direction = Debit
		raw = strings.TrimSpace(raw[1:])
	case strings.HasPrefix(raw, "+"):
		raw = strings.TrimSpace(raw[1:])
	}

	currency := money.DetectCurrency(raw)
	numeric := strings.TrimSpace(currencyTokens.ReplaceAllString(raw, ""))

	m := amountPattern.FindStringSubmatch(numeric)
	if m == nil {
		return decimal.Decimal{}, "", direction, fmt.Errorf("%w: %q", ErrBadAmount, field)
	}

	normalized := strings.ReplaceAll(m[1], ".", "") + "." + m[2]
	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, "", direction, fmt.Errorf("%w: %q", ErrBadAmount, field)
	}

	amount = amount.Abs()
	if amount.GreaterThan(decimal.NewFromInt(maxAmountMajorUnits)) {
		return decimal.Decimal{}, "", direction, fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount)
	}

	return amount, currency, direction, nil
}

// noisePrefixes are transaction-type markers banks prepend to card
// purchases. They carry no merchant information and are stripped so the
// categorizer sees the vendor first. Transfer markers (UPLATA,
// BEZGOTOVINSKI PRENOS) are NOT noise: the income extractor keys on them.
var noisePrefixes = []string{
	"KUPOVINA ",
	"PLAĆANJE KARTICOM ",
	"PLACANJE KARTICOM ",
	"POS ",
}

// CleanDescription trims, collapses internal whitespace and strips
// card-purchase noise prefixes.
func CleanDescription(s string) string {
	cleaned := strings.TrimSpace(whitespace.ReplaceAllString(s, " "))

	upper := strings.ToUpper(cleaned)
	for _, prefix := range noisePrefixes {
		if strings.HasPrefix(upper, prefix) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
			break
		}
	}

	return cleaned
}
