package core

// columns.go defines the fixed import schema and the header checks run
// against it.
//
// Mapping from header to row fields is by name, never by position, so a file
// whose columns are reordered still imports correctly (with a warning).

import (
	"fmt"
	"strings"
)

// Column names of the import file, in their expected order.
const (
	ColName          = "Nome do Produto"
	ColVolume        = "Volume"
	ColCategory      = "Categoria"
	ColSellMode      = "Venda em (un/pct)"
	ColStock         = "Estoque Atual"
	ColSupplier      = "Fornecedor"
	ColCostPrice     = "Preço de Custo"
	ColUnitPrice     = "Preço de Venda Atual (un.)"
	ColUnitMargin    = "Margem de Lucro (un.)"
	ColPackagePrice  = "Preço de Venda Atual (pct)"
	ColPackageMargin = "Margem de Lucro (pct)"
	ColTurnover      = "Giro (Vende Rápido/Devagar)"
)

// ExpectedHeaders is the header row every import file must carry.
var ExpectedHeaders = []string{
	ColName,
	ColVolume,
	ColCategory,
	ColSellMode,
	ColStock,
	ColSupplier,
	ColCostPrice,
	ColUnitPrice,
	ColUnitMargin,
	ColPackagePrice,
	ColPackageMargin,
	ColTurnover,
}

// HeaderIndex maps column names to their position in the header row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a header row.
// The first occurrence of a repeated name wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

// value returns the cell for column name, or "" when the column is absent or
// the row is short.
func (idx HeaderIndex) value(fields []string, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(fields) {
		return ""
	}
	return fields[pos]
}

// HeaderValidation is the outcome of checking a header row.
type HeaderValidation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateHeaders checks a tokenized header row against ExpectedHeaders.
// Missing columns are fatal. Unknown, repeated and reordered columns only
// produce warnings.
func ValidateHeaders(header []string) HeaderValidation {
	result := HeaderValidation{Valid: true}
	idx := MakeHeaderIndex(header)

	var missing []string
	for _, name := range ExpectedHeaders {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	expected := make(map[string]bool, len(ExpectedHeaders))
	for _, name := range ExpectedHeaders {
		expected[name] = true
	}

	var extra, repeated []string
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if seen[h] {
			repeated = append(repeated, h)
			continue
		}
		seen[h] = true
		if !expected[h] {
			extra = append(extra, h)
		}
	}
	if len(extra) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("unrecognized columns will be ignored: %s", strings.Join(extra, ", ")))
	}
	if len(repeated) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("repeated columns, first occurrence used: %s", strings.Join(repeated, ", ")))
	}

	n := min(len(header), len(ExpectedHeaders))
	for i := 0; i < n; i++ {
		if header[i] != ExpectedHeaders[i] {
			result.Warnings = append(result.Warnings,
				"columns are not in the expected order; values are mapped by column name")
			break
		}
	}

	return result
}
