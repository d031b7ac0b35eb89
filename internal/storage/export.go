package storage

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	quotesSheet  = "Quotes"
	exportLimit  = 10000
	exportLayout = "2006-01-02 15:04"
)

var quoteHeaders = []string{
	"ID", "Created At", "Product ID", "Decoration Method", "Quantity",
	"Color Counts", "Location Count", "Each Item", "Setup Fee", "Total",
	"Overridden",
}

// ExportQuotesToExcel writes the most recent quotes as an .xlsx workbook.
func (s *PostgresStorage) ExportQuotesToExcel(ctx context.Context, w io.Writer) error {
	const operation = "storage.ExportQuotesToExcel"

	quotes, err := s.ListQuotes(ctx, exportLimit)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if err := WriteQuotesWorkbook(w, quotes); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

func WriteQuotesWorkbook(w io.Writer, quotes []Quote) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), quotesSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, header := range quoteHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(quotesSheet, cell, header)
	}

	for row, q := range quotes {
		data := []interface{}{
			q.ID.String(),
			q.CreatedAt.Format(exportLayout),
			q.ProductID,
			q.DecorationMethod,
			q.Quantity,
			formatCounts(q.ColorCounts),
			q.LocationCount,
			q.EachItem.StringFixed(2),
			q.SetupFee.StringFixed(2),
			q.Total.StringFixed(2),
			q.Overridden,
		}
		for col, value := range data {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(quotesSheet, cell, value)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(quoteHeaders), 1)
		f.SetCellStyle(quotesSheet, "A1", lastHeader, style)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func formatCounts(counts []float64) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = strconv.FormatFloat(c, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
