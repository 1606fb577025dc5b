package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/phpdave11/gofpdf"

	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/dashboard"
)

var menuColumns = []struct {
	title string
	width float64
	align string
}{
	{"Menu Item", 60, "L"},
	{"Quantity Sold", 28, "R"},
	{"Total Revenue", 36, "R"},
	{"Average Price", 32, "R"},
	{"Last Sold", 34, "L"},
}

// WriteMenuItemsPDF writes a printable menu-item report for pub to w.
func WriteMenuItemsPDF(w io.Writer, pub dashboard.Publication) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Menu Items Report")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s (%s)", pub.PublishedAt.Format("Jan 2, 2006 15:04"), pub.Phase))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range menuColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, item := range pub.Items {
		row := []string{
			tr(item.Name),
			strconv.FormatInt(item.TotalQuantity, 10),
			billing.FormatCurrency(item.TotalRevenue),
			billing.FormatCurrency(item.AveragePrice),
			item.LastSoldDate.Display(),
		}
		writePDFRow(pdf, row, false)
	}

	pdf.SetFont("Arial", "B", 10)
	writePDFRow(pdf, []string{
		"Total",
		strconv.FormatInt(pub.Totals.Quantity, 10),
		billing.FormatCurrency(pub.Totals.Revenue),
		"-",
		"-",
	}, true)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func writePDFRow(pdf *gofpdf.Fpdf, row []string, fill bool) {
	for i, col := range menuColumns {
		pdf.CellFormat(col.width, 7, row[i], "1", 0, col.align, fill, 0, "")
	}
	pdf.Ln(-1)
}
