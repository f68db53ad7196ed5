// Package export выгружает список подготовки заказов в XLSX.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/stock"
)

// Имена листов книги.
const (
	SheetPrep   = "Prep"
	SheetOrders = "Orders"
)

var (
	prepHeader   = []any{"SKU", "eMAG", "Trendyol", "Total", "Stock eMAG", "Stock Trendyol", "Stock Oblio"}
	ordersHeader = []any{"Order", "Marketplace", "Status", "Created", "SKU", "Qty"}
)

// PrepList записывает в w книгу с двумя листами: сводкой по артикулам с остатками и построчным списком заказов.
func PrepList(w io.Writer, rows []stock.Row, orders []model.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPrep); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetOrders); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	prep := make([][]any, 0, len(rows))
	for _, r := range rows {
		prep = append(prep, []any{r.SKU, r.Emag, r.Trendyol, r.Total,
			optional(r.StockEmag), optional(r.StockTrendyol), optional(r.StockOblio)})
	}
	if err := writeSheet(f, SheetPrep, prepHeader, prep, bold); err != nil {
		return err
	}

	var lines [][]any
	for _, o := range orders {
		created := ""
		if !o.CreatedAt.IsZero() {
			created = o.CreatedAt.Format("2006-01-02 15:04")
		}
		for _, item := range o.Items {
			lines = append(lines, []any{o.PlatformOrderID, o.Marketplace, o.Status, created, item.SKU, item.Units()})
		}
	}
	if err := writeSheet(f, SheetOrders, ordersHeader, lines, bold); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "B", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
