package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/schoolbooks/internal/core"
)

const (
	exportSheet   = "Books"
	templateSheet = "Books"
)

// Content types for HTTP responses.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// exportRecord renders one row in ExportColumns order. Money has two decimal
// places; an undefined margin percent is an empty cell.
func exportRecord(r core.Row) []string {
	pct := ""
	if r.MarginPercent != nil {
		pct = core.FormatMoney(*r.MarginPercent)
	}
	return []string{
		r.Zone,
		r.Grade,
		r.SKU,
		r.BookName,
		r.BookCategory,
		strconv.FormatInt(r.Qty, 10),
		core.FormatMoney(r.SellingPrice),
		core.FormatMoney(r.CostPrice),
		core.FormatMoney(r.TotalCost),
		core.FormatMoney(r.TotalSelling),
		core.FormatMoney(r.Margin),
		pct,
	}
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []core.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(core.ExportColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(exportRecord(r)); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes rows to a single-sheet workbook with a bold header.
// Numeric columns are written as numbers so the sheet can sum them.
func WriteXLSX(w io.Writer, rows []core.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeader(f, exportSheet, core.ExportColumns); err != nil {
		return err
	}

	for i, r := range rows {
		values := []any{
			r.Zone,
			r.Grade,
			r.SKU,
			r.BookName,
			r.BookCategory,
			r.Qty,
			r.SellingPrice.InexactFloat64(),
			r.CostPrice.InexactFloat64(),
			r.TotalCost.InexactFloat64(),
			r.TotalSelling.InexactFloat64(),
			r.Margin.InexactFloat64(),
			nil,
		}
		if r.MarginPercent != nil {
			values[len(values)-1] = r.MarginPercent.InexactFloat64()
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// WriteTemplate writes an empty workbook carrying only the import headers.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeader(f, templateSheet, core.ImportColumns); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, bold)
}
