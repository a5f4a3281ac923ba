// Package export renders tabular data as spreadsheet or delimited text files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// ContentTypeXLSX is the MIME type of an Office Open XML workbook.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// ContentTypeCSV is the MIME type of the delimited text export.
	ContentTypeCSV = "text/csv; charset=utf-8"

	// Delimiter separates CSV fields. Semicolons keep spreadsheet tools in
	// comma-decimal locales from splitting numbers.
	Delimiter = ';'

	// TimeLayout formats timestamps in every export.
	TimeLayout = "2006-01-02 15:04"
)

// Table is a named grid of values. Cells may be strings, numbers, time.Time
// or *time.Time; nil pointers render as empty cells.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Filename builds a timestamped download name such as Visitors_20250101_1504.xlsx.
func Filename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("20060102_1504"), ext)
}

// WriteCSV writes the table as UTF-8 CSV preceded by a byte order mark.
func WriteCSV(w io.Writer, table Table) error {
	bomWriter := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bomWriter)
	cw.Comma = Delimiter

	if err := cw.Write(table.Columns); err != nil {
		return fmt.Errorf("export: csv header: %w", err)
	}

	record := make([]string, len(table.Columns))
	for i, row := range table.Rows {
		for j := range record {
			record[j] = ""
			if j < len(row) {
				record[j] = formatCell(row[j])
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export: csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: csv flush: %w", err)
	}
	if err := bomWriter.Close(); err != nil {
		return fmt.Errorf("export: csv close: %w", err)
	}
	return nil
}

// WriteXLSX writes the table as a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, table Table) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("export: close workbook: %w", cerr)
		}
	}()

	sheet := table.Name
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("export: rename sheet: %w", err)
		}
	}

	for col, title := range table.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("export: header %s: %w", cell, err)
		}
	}

	for r, row := range table.Rows {
		for col, value := range row {
			if col >= len(table.Columns) {
				break
			}
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, formatCell(value)); err != nil {
				return fmt.Errorf("export: cell %s: %w", cell, err)
			}
		}
	}

	if len(table.Columns) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("export: header style: %w", err)
		}
		last, err := excelize.ColumnNumberToName(len(table.Columns))
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
			return fmt.Errorf("export: apply header style: %w", err)
		}
		if err := f.SetColWidth(sheet, "A", last, 22); err != nil {
			return fmt.Errorf("export: column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(TimeLayout)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.Format(TimeLayout)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
