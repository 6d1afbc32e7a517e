// Package export renders expense and lend/return records as downloadable
// CSV and Excel documents.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

// Table is a flat sheet of rows ready for serialization.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

var expenseHeaders = []string{"Date", "Category", "Amount", "Note", "Created At"}

// ExpenseTable converts expense records to their export layout.
func ExpenseTable(records []core.ExpenseRecord) Table {
	rows := make([][]string, 0, len(records))
	for _, e := range records {
		rows = append(rows, []string{
			e.Date.Format("2006-01-02"),
			string(e.Category),
			e.Amount.String(),
			e.Note,
			e.CreatedAt.Format(time.RFC3339),
		})
	}
	return Table{Name: "Expenses", Headers: expenseHeaders, Rows: rows}
}

var lendHeaders = []string{"Date", "Person", "Type", "Amount", "Note", "Created At"}

// LendTable converts lend/return records to their export layout.
func LendTable(records []core.LendRecord) Table {
	rows := make([][]string, 0, len(records))
	for _, l := range records {
		rows = append(rows, []string{
			l.Date.Format("2006-01-02"),
			l.PersonName,
			string(l.Kind),
			l.Amount.String(),
			l.Note,
			l.CreatedAt.Format(time.RFC3339),
		})
	}
	return Table{Name: "Lend Returns", Headers: lendHeaders, Rows: rows}
}

// WriteCSV streams a single table as CSV.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX streams a workbook with one sheet per table.
func WriteXLSX(w io.Writer, tables ...Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			// The default sheet becomes the first table.
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(t.Name); err != nil {
				return fmt.Errorf("add sheet %q: %w", t.Name, err)
			}
		}
		if err := writeSheet(f, t); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, t Table) error {
	for col, h := range t.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(t.Name, cell, h); err != nil {
			return fmt.Errorf("set header %q: %w", h, err)
		}
	}
	for r, row := range t.Rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(t.Name, cell, v); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

// Filename builds the attachment name for a download, e.g.
// "expenses-2025-03-15.csv".
func Filename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", prefix, now.Format("2006-01-02"), ext)
}
