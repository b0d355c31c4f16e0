package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Turnover classifies how quickly a product's stock depletes.
type Turnover string

const (
	TurnoverFast   Turnover = "fast"
	TurnoverMedium Turnover = "medium"
	TurnoverSlow   Turnover = "slow"
)

// Catalog defaults applied to every imported product.
const (
	DefaultMinimumStock  = 5
	DefaultUnitType      = "un"
	DefaultPackagingType = "fardo"
)

// ProductRow is one data line of the import file, populated by header name.
// Values are the raw trimmed cell strings; normalization happens later.
type ProductRow struct {
	Line          int    `json:"line"`
	Name          string `json:"name"`
	Volume        string `json:"volume"`
	Category      string `json:"category"`
	SellMode      string `json:"sellMode"`
	Stock         string `json:"stock"`
	Supplier      string `json:"supplier"`
	CostPrice     string `json:"costPrice"`
	UnitPrice     string `json:"unitPrice"`
	UnitMargin    string `json:"unitMargin"`
	PackagePrice  string `json:"packagePrice"`
	PackageMargin string `json:"packageMargin"`
	Turnover      string `json:"turnover"`
}

// SellMode describes how a product is sold, parsed from the "Venda em" column.
type SellMode struct {
	SellsIndividually bool `json:"sellsIndividually"`
	SellsByPackage    bool `json:"sellsByPackage"`
	PackageSize       int  `json:"packageSize"`
}

// StockInfo is the decoded composite stock descriptor.
// TotalUnits is the authoritative quantity.
type StockInfo struct {
	TotalUnits    int `json:"totalUnits"`
	PackagesCount int `json:"packagesCount"`
	LooseUnits    int `json:"looseUnits"`
}

// CatalogEntryCandidate is a fully normalized product awaiting insertion.
// Optional values use Valid=false as the absent sentinel.
type CatalogEntryCandidate struct {
	Line              int                 `json:"line"`
	Name              string              `json:"name"`
	Category          string              `json:"category"`
	UnitPrice         decimal.NullDecimal `json:"unitPrice"`
	PackagePrice      decimal.NullDecimal `json:"packagePrice"`
	CostPrice         decimal.NullDecimal `json:"costPrice"`
	UnitMargin        decimal.NullDecimal `json:"unitMargin"`
	PackageMargin     decimal.NullDecimal `json:"packageMargin"`
	StockQuantity     int                 `json:"stockQuantity"`
	PackagesCount     int                 `json:"packagesCount"`
	LooseUnits        int                 `json:"looseUnits"`
	PackageSize       int                 `json:"packageSize"`
	IsPackage         bool                `json:"isPackage"`
	SellsIndividually bool                `json:"sellsIndividually"`
	Turnover          Turnover            `json:"turnover"`
	VolumeML          pgtype.Int4         `json:"volumeMl"`
	Supplier          pgtype.Text         `json:"supplier"`
	MinimumStock      int                 `json:"minimumStock"`
	UnitType          string              `json:"unitType"`
	PackagingType     string              `json:"packagingType"`
}

// CatalogEntry is a candidate as returned by the store after insertion.
type CatalogEntry struct {
	ID string `json:"id"`
	CatalogEntryCandidate
	CreatedAt time.Time `json:"createdAt"`
}

// NewCategory is a category to be created in the category directory.
type NewCategory struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	IsActive    bool   `json:"isActive"`
}

// ProductStore persists candidate records. InsertProducts is called once per
// chunk and must either store the whole chunk or return an error.
type ProductStore interface {
	InsertProducts(ctx context.Context, products []CatalogEntryCandidate) ([]CatalogEntry, error)
}

// CategoryDirectory answers which categories exist and creates missing ones.
type CategoryDirectory interface {
	ExistingCategories(ctx context.Context, names []string) ([]string, error)
	CreateCategories(ctx context.Context, categories []NewCategory) error
}

// ParseStatistics summarizes a full parse of an import file.
type ParseStatistics struct {
	TotalRows   int `json:"totalRows"`
	ValidRows   int `json:"validRows"`
	InvalidRows int `json:"invalidRows"`
	EmptyRows   int `json:"emptyRows"`
}

// ParseResult is the immutable outcome of parsing one import file.
type ParseResult struct {
	Valid      bool            `json:"valid"`
	Headers    []string        `json:"headers"`
	Rows       []ProductRow    `json:"rows"`
	Errors     []string        `json:"errors"`
	Warnings   []string        `json:"warnings"`
	Statistics ParseStatistics `json:"statistics"`
}

// Phase indicates the current stage of an import run.
type Phase string

const (
	PhaseUploading  Phase = "uploading"
	PhaseValidating Phase = "validating"
	PhaseProcessing Phase = "processing"
	PhaseInserting  Phase = "inserting"
	PhaseCompleted  Phase = "completed"
	PhaseError      Phase = "error"
)

// Terminal reports whether no further progress follows this phase.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

// ImportProgress is broadcast on every phase transition and chunk attempt.
type ImportProgress struct {
	ImportID string `json:"importId"`
	Phase    Phase  `json:"phase"`
	Message  string `json:"message"`
	Current  int    `json:"current"`
	Total    int    `json:"total"`
}

// Percent returns the progress as a percentage (0-100).
func (p ImportProgress) Percent() int {
	if p.Total <= 0 {
		if p.Phase == PhaseCompleted {
			return 100
		}
		return 0
	}
	return (p.Current * 100) / p.Total
}

// ImportResult is the terminal outcome of a run. Success is true only if no
// row insertion failed and the run was not cancelled. Errors holds chunk
// failures; RowErrors holds the rows excluded during validation.
type ImportResult struct {
	ImportID          string         `json:"importId"`
	FileName          string         `json:"fileName"`
	Success           bool           `json:"success"`
	TotalProcessed    int            `json:"totalProcessed"`
	SuccessCount      int            `json:"successCount"`
	ErrorCount        int            `json:"errorCount"`
	NotAttempted      int            `json:"notAttempted"`
	Cancelled         bool           `json:"cancelled"`
	SkippedRows       int            `json:"skippedRows"`
	Errors            []string       `json:"errors"`
	RowErrors         []string       `json:"rowErrors"`
	Warnings          []string       `json:"warnings"`
	CreatedCategories []string       `json:"createdCategories,omitempty"`
	InsertedProducts  []CatalogEntry `json:"insertedProducts"`
	Duration          time.Duration  `json:"duration"`
}

// NeedsCategoryConfirmation is returned by Run.Prepare when the file
// references categories absent from the directory. The run is suspended until
// Run.Resume is called.
type NeedsCategoryConfirmation struct {
	ImportID string   `json:"importId"`
	Missing  []string `json:"missing"`
}

// File is an uploaded import file held in memory.
type File struct {
	Name string
	Size int64
	Data []byte
}
