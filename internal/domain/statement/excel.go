package statement

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets means the workbook contains no usable worksheet.
var ErrNoSheets = errors.New("statement: workbook has no sheets")

// RowsFromXLSX reads the first worksheet of an xlsx bank export and returns
// its rows as raw fields. Cells come back already tokenized, so the result
// plugs into the same pipeline right after SplitFields. Header discovery
// still applies: rows before the DATUM header are bank preamble.
func RowsFromXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("statement: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("statement: read sheet %q: %w", sheets[0], err)
	}

	return rows, nil
}

// FindHeaderRow locates the DATUM header in pre-tokenized rows (the xlsx
// path). Matching stays case-sensitive, same as FindHeader.
func FindHeaderRow(rows [][]string) (int, error) {
	for i, row := range rows {
		for _, cell := range row {
			if strings.Contains(cell, HeaderMarker) {
				return i, nil
			}
		}
	}
	return 0, ErrHeaderNotFound
}
