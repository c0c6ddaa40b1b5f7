// Package sheets reads and writes single-sheet .xlsx workbooks for the
// student import and the applicant and selection exports.
package sheets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrEmpty is returned when a workbook has no data rows.
var ErrEmpty = errors.New("sheet has no data rows")

// Table is a header row plus data rows.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]any
	// Widths sets column widths by index; missing entries keep the default.
	Widths []float64
}

// Build renders t into an .xlsx workbook.
func Build(t Table) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	name := t.Sheet
	if name == "" {
		name = "Sheet1"
	}
	if name != "Sheet1" {
		idx, err := f.NewSheet(name)
		if err != nil {
			return nil, fmt.Errorf("new sheet: %w", err)
		}
		f.SetActiveSheet(idx)
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("delete default sheet: %w", err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, w := range t.Widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(name, col, col, w); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	if len(t.Header) > 0 {
		row := make([]any, len(t.Header))
		for i, h := range t.Header {
			row[i] = h
		}
		if err := f.SetSheetRow(name, "A1", &row); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
		if err := f.SetCellStyle(name, "A1", last, header); err != nil {
			return nil, fmt.Errorf("style header: %w", err)
		}
	}
	for i, r := range t.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := r
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// Serve writes t as an attachment named filename.
func Serve(w http.ResponseWriter, filename string, t Table) error {
	buf, err := Build(t)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.WriteHeader(http.StatusOK)
	_, err = buf.WriteTo(w)
	return err
}

// Record is one data row keyed by lowercased, trimmed header name.
type Record struct {
	Line   int // 1-based row number in the sheet
	Fields map[string]string
}

// Get returns the trimmed value under key, or "".
func (r Record) Get(key string) string { return r.Fields[strings.ToLower(key)] }

// Read parses the first sheet of an .xlsx workbook. The first row is the
// header; fully blank rows are skipped.
func Read(src io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheetsList := f.GetSheetList()
	if len(sheetsList) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheetsList[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrEmpty
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	out := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec := Record{Line: i + 2, Fields: make(map[string]string, len(header))}
		blank := true
		for c, v := range row {
			if c >= len(header) || header[c] == "" {
				continue
			}
			v = strings.TrimSpace(v)
			if v != "" {
				blank = false
			}
			rec.Fields[header[c]] = v
		}
		if !blank {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}
