// Package export renders dashboard snapshots as spreadsheet and PDF files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/legphel-eats/fnb-dashboard/internal/aggregate"
	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/dashboard"
)

// Sheet names of the bill report workbook.
const (
	SheetBillSummary = "Bill Summary"
	SheetBillDetails = "Bill Details"
	SheetMenuItems   = "Menu Items"
)

// Content types for HTTP responses.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

var (
	summaryHeader = []any{"Bill No", "Date", "Time", "Table No", "Pax", "Total Amount", "Payment Status"}
	detailsHeader = []any{"Bill No", "Date", "Menu Item", "Quantity", "Total"}
	menuHeader    = []any{"Menu Item", "Quantity Sold", "Total Revenue", "Average Price", "Last Sold"}
)

// BillReportFilename names the bill report for the date range.
func BillReportFilename(start, end billing.Date) string {
	return fmt.Sprintf("bill_report_%s_to_%s.xlsx", start.ISO(), end.ISO())
}

// MenuItemsFilename names the menu-item report with the given extension.
func MenuItemsFilename(pub dashboard.Publication, ext string) string {
	return fmt.Sprintf("menu_items_%s_%s.%s", pub.Phase, pub.PublishedAt.Format("2006-01-02"), ext)
}

// WriteBillReport writes the two-sheet bill workbook for data to w.
func WriteBillReport(w io.Writer, data dashboard.ExportData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetBillSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetBillDetails); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	summary := [][]any{summaryHeader}
	for _, b := range data.Bills {
		summary = append(summary, []any{
			b.BillNo,
			b.Date.Display(),
			b.Time,
			b.TableNo.String(),
			int64(b.Pax),
			b.Total().InexactFloat64(),
			b.PaymentStatus,
		})
	}

	details := [][]any{detailsHeader}
	for _, b := range data.Bills {
		for _, d := range data.Details[b.BillNo] {
			details = append(details, []any{
				b.BillNo,
				b.Date.Display(),
				d.Name(),
				int64(d.Quantity),
				fmt.Sprintf("%s × %d", d.Name(), d.Quantity),
			})
		}
	}

	if err := writeRows(f, SheetBillSummary, summary); err != nil {
		return err
	}
	if err := writeRows(f, SheetBillDetails, details); err != nil {
		return err
	}
	return f.Write(w)
}

// WriteMenuItems writes the menu-item table with its Total row to w.
func WriteMenuItems(w io.Writer, items []aggregate.MenuItem, totals aggregate.Totals) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMenuItems); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][]any{menuHeader}
	for _, item := range items {
		rows = append(rows, []any{
			item.Name,
			item.TotalQuantity,
			item.TotalRevenue.InexactFloat64(),
			item.AveragePrice.InexactFloat64(),
			item.LastSoldDate.Display(),
		})
	}
	rows = append(rows, []any{"Total", totals.Quantity, totals.Revenue.InexactFloat64(), "-", "-"})

	if err := writeRows(f, SheetMenuItems, rows); err != nil {
		return err
	}
	return f.Write(w)
}

// writeRows writes rows from A1 down and bolds the header row.
func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return f.SetColWidth(sheet, "A", "G", 16)
}
