// Package statement parses raw bank-statement exports: line tokenization,
// header discovery and locale-aware field parsing.
//
// The supported dialect is the one Serbian banks actually emit: comma
// delimited, fields optionally wrapped in double quotes, no RFC 4180
// escaped-quote doubling, dates as DD.MM.YYYY and amounts as "1.234,56".
package statement

import (
	"errors"
	"strings"
)

// HeaderMarker is the literal token that identifies the column-header line.
// Matching is case-sensitive; everything above the header is bank preamble.
const HeaderMarker = "DATUM"

// ErrHeaderNotFound means the file contains no DATUM header line and no rows
// can be emitted.
var ErrHeaderNotFound = errors.New("statement: header line not found")

// SplitLines breaks raw file content into lines, tolerating CRLF endings.
func SplitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}

// FindHeader returns the index of the header line. Row processing starts at
// the line after it.
func FindHeader(lines []string) (int, error) {
	for i, line := range lines {
		if strings.Contains(line, HeaderMarker) {
			return i, nil
		}
	}
	return 0, ErrHeaderNotFound
}

// SplitFields splits one CSV line into fields. A double quote toggles an
// in-quotes state character by character; commas inside quotes do not split.
// Quote characters themselves are not part of the field. The trailing field
// is always appended, delimiter or not.
func SplitFields(line string) []string {
	fields := make([]string, 0, 4)
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())

	return fields
}
