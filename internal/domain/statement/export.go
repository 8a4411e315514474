package statement

import (
	"fmt"

	"github.com/gocarina/gocsv"
)

// exportRow is the normalized, dot-decimal rendition of a parsed row for
// download and debugging.
type exportRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Currency    string `csv:"currency"`
	Direction   string `csv:"direction"`
}

// ExportCSV renders parsed rows back to a clean CSV: ISO dates, dot
// decimals, explicit direction column.
func ExportCSV(rows []*Row) (string, error) {
	out := make([]exportRow, 0, len(rows))
	for _, row := range rows {
		direction := "credit"
		if row.Direction == Debit {
			direction = "debit"
		}
		out = append(out, exportRow{
			Date:        row.Date.Format("2006-01-02"),
			Description: row.Description,
			Amount:      row.Amount.StringFixed(2),
			Currency:    row.Currency.String(),
			Direction:   direction,
		})
	}

	csv, err := gocsv.MarshalString(&out)
	if err != nil {
		return "", fmt.Errorf("statement: export: %w", err)
	}
	return csv, nil
}
