package core

// validation.go applies the per-row business rules.
//
// Every rule runs on every row and all violations are collected, so the
// user sees everything wrong with a line at once. A failing row is excluded
// from the import; it never fails the whole file.

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// RowValidation contains the result of validating a row.
type RowValidation struct {
	Valid  bool              // True if all rules passed
	Errors []ValidationError // List of violations (empty if Valid)
}

// Message joins all violations into one line.
func (v RowValidation) Message() string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateRow checks a row: name present, category present, at least one
// sale price present, and every present sale price strictly positive.
func ValidateRow(row ProductRow) RowValidation {
	result := RowValidation{Valid: true}
	fail := func(field, value, msg string) {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{Field: field, Value: value, Message: msg})
	}

	if strings.TrimSpace(row.Name) == "" {
		fail(ColName, row.Name, "product name is required")
	}

	if !CleanCategory(row.Category).Valid {
		fail(ColCategory, row.Category, "a valid category is required")
	}

	unit := ParseMoney(row.UnitPrice)
	pkg := ParseMoney(row.PackagePrice)
	if !unit.Valid && !pkg.Valid {
		fail("", "", "at least one price (unit or package) is required")
	}
	if unit.Valid && !unit.Decimal.IsPositive() {
		fail(ColUnitPrice, row.UnitPrice, "unit price must be greater than zero")
	}
	if pkg.Valid && !pkg.Decimal.IsPositive() {
		fail(ColPackagePrice, row.PackagePrice, "package price must be greater than zero")
	}

	return result
}

// rowFromFields populates a ProductRow by column name.
func rowFromFields(idx HeaderIndex, fields []string, line int) ProductRow {
	return ProductRow{
		Line:          line,
		Name:          idx.value(fields, ColName),
		Volume:        idx.value(fields, ColVolume),
		Category:      idx.value(fields, ColCategory),
		SellMode:      idx.value(fields, ColSellMode),
		Stock:         idx.value(fields, ColStock),
		Supplier:      idx.value(fields, ColSupplier),
		CostPrice:     idx.value(fields, ColCostPrice),
		UnitPrice:     idx.value(fields, ColUnitPrice),
		UnitMargin:    idx.value(fields, ColUnitMargin),
		PackagePrice:  idx.value(fields, ColPackagePrice),
		PackageMargin: idx.value(fields, ColPackageMargin),
		Turnover:      idx.value(fields, ColTurnover),
	}
}

// Candidate normalizes a validated row into a catalog entry candidate.
func (r ProductRow) Candidate() CatalogEntryCandidate {
	mode := ParseSellMode(r.SellMode)
	stock := ParseStock(r.Stock, mode.PackageSize)

	return CatalogEntryCandidate{
		Line:              r.Line,
		Name:              strings.TrimSpace(r.Name),
		Category:          CleanCategory(r.Category).String,
		UnitPrice:         ParseMoney(r.UnitPrice),
		PackagePrice:      ParseMoney(r.PackagePrice),
		CostPrice:         ParseMoney(r.CostPrice),
		UnitMargin:        ParsePercentage(r.UnitMargin),
		PackageMargin:     ParsePercentage(r.PackageMargin),
		StockQuantity:     stock.TotalUnits,
		PackagesCount:     stock.PackagesCount,
		LooseUnits:        stock.LooseUnits,
		PackageSize:       mode.PackageSize,
		IsPackage:         mode.SellsByPackage,
		SellsIndividually: mode.SellsIndividually,
		Turnover:          ParseTurnover(r.Turnover),
		VolumeML:          ParseVolumeML(r.Volume),
		Supplier:          CleanSupplier(r.Supplier),
		MinimumStock:      DefaultMinimumStock,
		UnitType:          DefaultUnitType,
		PackagingType:     DefaultPackagingType,
	}
}
