// Package store provides ProductStore and CategoryDirectory adapters for the
// import pipeline.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/catalogimport/internal/core"
)

// Default table names.
const (
	DefaultProductsTable   = "products"
	DefaultCategoriesTable = "categories"
)

// productColumns are written for every inserted product, in this order.
var productColumns = []string{
	"name",
	"category",
	"price",
	"package_price",
	"cost_price",
	"margin_percent",
	"package_margin",
	"stock_quantity",
	"packages_count",
	"loose_units",
	"package_size",
	"units_per_package",
	"is_package",
	"sells_individually",
	"turnover_rate",
	"volume_ml",
	"supplier",
	"minimum_stock",
	"unit_type",
	"packaging_type",
}

var categoryColumns = []string{"name", "description", "color", "icon", "is_active"}

// Postgres stores products and categories through a pgx pool.
type Postgres struct {
	pool            *pgxpool.Pool
	productsTable   string
	categoriesTable string

	insertProduct  string
	insertCategory string
}

// NewPostgres creates a Postgres store. Empty table names select the
// defaults.
func NewPostgres(pool *pgxpool.Pool, productsTable, categoriesTable string) *Postgres {
	if productsTable == "" {
		productsTable = DefaultProductsTable
	}
	if categoriesTable == "" {
		categoriesTable = DefaultCategoriesTable
	}
	return &Postgres{
		pool:            pool,
		productsTable:   productsTable,
		categoriesTable: categoriesTable,
		insertProduct: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id, created_at",
			quoteIdentifier(productsTable),
			strings.Join(quoteColumns(productColumns), ", "),
			placeholders(len(productColumns))),
		insertCategory: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (name) DO NOTHING",
			quoteIdentifier(categoriesTable),
			strings.Join(quoteColumns(categoryColumns), ", "),
			placeholders(len(categoryColumns))),
	}
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// InsertProducts writes one chunk in a single transaction. Either every
// product is stored or none is.
func (p *Postgres) InsertProducts(ctx context.Context, products []core.CatalogEntryCandidate) ([]core.CatalogEntry, error) {
	if len(products) == 0 {
		return nil, nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op once committed

	batch := &pgx.Batch{}
	for _, c := range products {
		batch.Queue(p.insertProduct, productArgs(c)...)
	}

	entries := make([]core.CatalogEntry, len(products))
	br := tx.SendBatch(ctx, batch)
	for i, c := range products {
		var (
			id        pgtype.UUID
			createdAt time.Time
		)
		if err := br.QueryRow().Scan(&id, &createdAt); err != nil {
			br.Close()
			return nil, fmt.Errorf("insert line %d: %w", c.Line, err)
		}
		entries[i] = core.CatalogEntry{
			ID:                    uuidToString(id),
			CatalogEntryCandidate: c,
			CreatedAt:             createdAt,
		}
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return entries, nil
}

// ExistingCategories returns the names from names that already exist.
func (p *Postgres) ExistingCategories(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT name FROM %s WHERE name = ANY($1)", quoteIdentifier(p.categoriesTable))
	rows, err := p.pool.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	existing, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return existing, nil
}

// CreateCategories inserts all categories in one transaction. Names that
// already exist are left untouched.
func (p *Postgres) CreateCategories(ctx context.Context, categories []core.NewCategory) error {
	if len(categories) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range categories {
		batch.Queue(p.insertCategory, c.Name, c.Description, c.Color, c.Icon, c.IsActive)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert categories: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// productArgs returns the query arguments for c in productColumns order.
// Absent decimals encode as NULL through their driver.Valuer.
func productArgs(c core.CatalogEntryCandidate) []any {
	return []any{
		c.Name,
		c.Category,
		c.UnitPrice,
		c.PackagePrice,
		c.CostPrice,
		c.UnitMargin,
		c.PackageMargin,
		c.StockQuantity,
		c.PackagesCount,
		c.LooseUnits,
		c.PackageSize,
		c.PackageSize,
		c.IsPackage,
		c.SellsIndividually,
		string(c.Turnover),
		c.VolumeML,
		c.Supplier,
		c.MinimumStock,
		c.UnitType,
		c.PackagingType,
	}
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteColumns(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdentifier(col)
	}
	return quoted
}

func placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(ph, ", ")
}

func uuidToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
