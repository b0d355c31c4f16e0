package core

import (
	"fmt"
	"strings"
)

// ParseText tokenizes and validates the full text of an import file.
//
// Structural problems (fewer than two non-empty lines, missing columns) make
// the result invalid with no rows. Row problems only exclude the offending
// row; the result is valid as long as at least one row survives.
// Line numbers count non-empty lines, starting with the header at 1.
func ParseText(text string) *ParseResult {
	result := &ParseResult{
		Rows:     []ProductRow{},
		Errors:   []string{},
		Warnings: []string{},
	}

	lines := SplitLines(text)
	if len(lines) < 2 {
		result.Errors = append(result.Errors, "file must contain a header row and at least one data row")
		return result
	}

	header := TokenizeLine(lines[0])
	result.Headers = header

	hv := ValidateHeaders(header)
	if !hv.Valid {
		result.Errors = append(result.Errors, hv.Errors...)
		return result
	}
	result.Warnings = append(result.Warnings, hv.Warnings...)
	result.Statistics.TotalRows = len(lines) - 1

	idx := MakeHeaderIndex(header)
	stats := &result.Statistics

	for i, line := range lines[1:] {
		lineNo := i + 2
		fields := TokenizeLine(line)

		if allBlank(fields) {
			stats.EmptyRows++
			continue
		}

		if len(fields) != len(header) {
			stats.InvalidRows++
			result.Errors = append(result.Errors, fmt.Sprintf(
				"line %d: wrong number of columns (expected %d, found %d)", lineNo, len(header), len(fields)))
			continue
		}

		row := rowFromFields(idx, fields, lineNo)
		if v := ValidateRow(row); !v.Valid {
			stats.InvalidRows++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %s", lineNo, v.Message()))
			continue
		}

		stats.ValidRows++
		result.Rows = append(result.Rows, row)
	}

	if stats.ValidRows == 0 {
		result.Errors = append(result.Errors, "no valid rows found")
	}
	result.Valid = stats.ValidRows > 0

	return result
}

func allBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
