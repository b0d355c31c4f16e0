package core

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// TemplateColumn documents one column of the import file.
type TemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Example     string `json:"example"`
}

// templateSheet is the worksheet holding headers and the sample row.
const templateSheet = "Produtos"

// TemplateColumns returns the expected columns in file order, each with an
// example value the parser accepts.
func TemplateColumns() []TemplateColumn {
	return []TemplateColumn{
		{ColName, "Product name", true, "Cerveja Pilsen Lata"},
		{ColVolume, "Volume in ml or L", false, FormatVolume(350)},
		{ColCategory, "Category name, created on confirmation when unknown", true, "Cervejas"},
		{ColSellMode, `"unidade", "pacote (Nun.)" or "caixa (Nun.)"`, false, "unidade, pacote (12un.)"},
		{ColStock, `"Npc + Nun", "Npc", "Nun" or "Ncx"`, false, FormatStock(StockInfo{PackagesCount: 8, LooseUnits: 9})},
		{ColSupplier, "Supplier name", false, "Distribuidora Central"},
		{ColCostPrice, "Cost per unit", false, FormatMoney(decimal.RequireFromString("2.10"))},
		{ColUnitPrice, "Unit price; unit or package price is required", false, FormatMoney(decimal.RequireFromString("3.50"))},
		{ColUnitMargin, "Unit margin", false, FormatPercent(decimal.RequireFromString("66.67"))},
		{ColPackagePrice, "Package price; unit or package price is required", false, FormatMoney(decimal.RequireFromString("1234.56"))},
		{ColPackageMargin, "Package margin", false, FormatPercent(decimal.RequireFromString("12.5"))},
		{ColTurnover, `"Rápido", "Devagar" or empty for medium`, false, "Rápido"},
	}
}

// TemplateSampleRow returns the example values of TemplateColumns.
func TemplateSampleRow() []string {
	cols := TemplateColumns()
	row := make([]string, len(cols))
	for i, c := range cols {
		row[i] = c.Example
	}
	return row
}

// WriteTemplateCSV writes the header line and one sample row.
func WriteTemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExpectedHeaders); err != nil {
		return err
	}
	if err := cw.Write(TemplateSampleRow()); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteTemplateXLSX writes a workbook with the headers and sample row, plus
// an instructions sheet describing every column.
func WriteTemplateXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"6B7280"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	cols := TemplateColumns()
	for i, col := range cols {
		header, _ := excelize.CoordinatesToCellName(i+1, 1)
		sample, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(templateSheet, header, col.Name); err != nil {
			return err
		}
		if err := f.SetCellStyle(templateSheet, header, header, headerStyle); err != nil {
			return err
		}
		if err := f.SetCellStr(templateSheet, sample, col.Example); err != nil {
			return err
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(templateSheet, name, name, 24); err != nil {
			return err
		}
	}

	const info = "Instruções"
	if _, err := f.NewSheet(info); err != nil {
		return fmt.Errorf("instructions sheet: %w", err)
	}
	_ = f.SetCellValue(info, "A1", "Coluna")
	_ = f.SetCellValue(info, "B1", "Descrição")
	_ = f.SetCellValue(info, "C1", "Obrigatória")
	_ = f.SetCellValue(info, "D1", "Exemplo")
	for i, col := range cols {
		row := i + 2
		required := "Não"
		if col.Required {
			required = "Sim"
		}
		_ = f.SetCellValue(info, fmt.Sprintf("A%d", row), col.Name)
		_ = f.SetCellValue(info, fmt.Sprintf("B%d", row), col.Description)
		_ = f.SetCellValue(info, fmt.Sprintf("C%d", row), required)
		_ = f.SetCellStr(info, fmt.Sprintf("D%d", row), col.Example)
	}
	_ = f.SetColWidth(info, "A", "A", 32)
	_ = f.SetColWidth(info, "B", "B", 56)

	if idx, err := f.GetSheetIndex(templateSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
