package service

import (
	"fmt"
	"time"

	"stockdesk/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	itemsSheet    = "Items"
	variantsSheet = "Variants"
)

var itemHeaders = []string{
	"ID", "Product Name", "Category", "Supplier", "Quantity In Stock", "Total Stocked",
	"Sold", "Reorder Level", "Cost Price", "Selling Price", "Has Variants", "Low Stock", "Updated At",
}

var variantHeaders = []string{
	"Item ID", "Product Name", "SKU", "Color", "Size", "Quantity In Stock", "Reorder Level", "Sold", "Active",
}

func buildWorkbook(items []*domain.Item, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", itemsSheet); err != nil {
		return nil, fmt.Errorf("failed to name items sheet: %w", err)
	}
	if _, err := f.NewSheet(variantsSheet); err != nil {
		return nil, fmt.Errorf("failed to add variants sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F2937"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lowStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FDE68A"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create low stock style: %w", err)
	}

	if err := writeHeader(f, itemsSheet, itemHeaders, headerStyle); err != nil {
		return nil, err
	}
	if err := writeHeader(f, variantsSheet, variantHeaders, headerStyle); err != nil {
		return nil, err
	}

	variantRow := 2
	for i, it := range items {
		row := i + 2
		low := len(it.LowStock()) > 0
		values := []any{
			it.ID.String(),
			it.ProductName,
			string(it.Category),
			it.Supplier,
			it.QuantityInStock,
			it.TotalStockedQuantity,
			it.SoldQuantity,
			it.ReorderLevel,
			it.CostPrice.InexactFloat64(),
			it.SellingPrice.InexactFloat64(),
			it.HasVariants,
			low,
			it.UpdatedAt.UTC().Format(time.RFC3339),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(itemsSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write item row: %w", err)
		}
		if low {
			last, _ := excelize.CoordinatesToCellName(len(itemHeaders), row)
			if err := f.SetCellStyle(itemsSheet, cell, last, lowStyle); err != nil {
				return nil, fmt.Errorf("failed to style item row: %w", err)
			}
		}

		for _, v := range it.Variants {
			values := []any{
				it.ID.String(), it.ProductName, v.SKU, v.Color, v.Size,
				v.QuantityInStock, v.ReorderLevel, v.SoldQuantity, v.IsActive,
			}
			cell, _ := excelize.CoordinatesToCellName(1, variantRow)
			if err := f.SetSheetRow(variantsSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write variant row: %w", err)
			}
			variantRow++
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Inventory export",
		Created: generatedAt.Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write %s header: %w", sheet, err)
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, 18); err != nil {
			return fmt.Errorf("failed to size %s column: %w", sheet, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
