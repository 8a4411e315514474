// Package money provides currency-safe amounts for bank-statement records.
// It wraps go-money for safe minor-unit arithmetic and shopspring/decimal for
// precise conversion of locale-parsed values.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is an ISO-4217 currency code supported by the statement pipeline.
type Currency string

// Currencies that appear on Serbian bank statements.
const (
	RSD Currency = "RSD" // Serbian Dinar (statement default)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
)

var ErrUnsupportedCurrency = errors.New("money: unsupported currency")

// ParseCurrency validates a currency code against the supported set.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(code))) {
	case RSD:
		return RSD, nil
	case USD:
		return USD, nil
	case EUR:
		return EUR, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
}

// DetectCurrency returns the currency referenced in a raw amount field.
// Statements mark foreign-currency rows with a trailing USD/EUR token;
// everything else is RSD.
func DetectCurrency(raw string) Currency {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, string(USD)):
		return USD
	case strings.Contains(upper, string(EUR)):
		return EUR
	default:
		return RSD
	}
}

func (c Currency) String() string { return string(c) }

// Valid reports whether the currency is one of the supported codes.
func (c Currency) Valid() bool {
	return c == RSD || c == USD || c == EUR
}

// Value implements driver.Valuer for database storage.
func (c Currency) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, string(c))
	}
	return string(c), nil
}

// Scan implements sql.Scanner.
func (c *Currency) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseCurrency(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case []byte:
		return c.Scan(string(v))
	}
	return fmt.Errorf("money: cannot scan %T into Currency", src)
}

// Money represents a monetary value with its currency. Arithmetic goes
// through go-money so mixed-currency operations fail loudly.
type Money struct {
	m *gomoney.Money
}

// New creates Money from minor units (para/cents).
func New(minorUnits int64, currency Currency) *Money {
	return &Money{m: gomoney.New(minorUnits, string(currency))}
}

// FromDecimal creates Money from a decimal amount, rounding to the
// currency's minor-unit precision.
func FromDecimal(amount decimal.Decimal, currency Currency) *Money {
	cur := gomoney.GetCurrency(string(currency))
	if cur == nil {
		cur = gomoney.GetCurrency(string(RSD))
	}
	minor := amount.Mul(decimal.New(1, int32(cur.Fraction))).Round(0).IntPart()
	return New(minor, currency)
}

// Decimal returns the value as a decimal in major units.
func (m *Money) Decimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -int32(m.m.Currency().Fraction))
}

// MinorUnits returns the amount in minor units.
func (m *Money) MinorUnits() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the currency code.
func (m *Money) Currency() Currency {
	if m == nil || m.m == nil {
		return ""
	}
	return Currency(m.m.Currency().Code)
}

// IsZero reports whether the amount is zero.
func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

// IsPositive reports whether the amount is greater than zero.
func (m *Money) IsPositive() bool {
	return m != nil && m.m != nil && m.m.IsPositive()
}

// Abs returns the absolute value.
func (m *Money) Abs() *Money {
	if m == nil || m.m == nil {
		return New(0, RSD)
	}
	return &Money{m: m.m.Absolute()}
}

// Add sums two values of the same currency.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil || other == nil || other.m == nil {
		return nil, errors.New("money: cannot add nil values")
	}
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, err
	}
	return &Money{m: sum}, nil
}

// Display formats the amount with its currency symbol.
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Display()
}

// String renders the amount as "<major-units> <code>", e.g. "5102.96 RSD".
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(int32(m.m.Currency().Fraction)), m.Currency())
}
