package export

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeHTML = "text/html; charset=utf-8"

	maxColumnWidth = 50
)

// sheetWriter appends rows to a single-sheet workbook and tracks the widest
// value per column.
type sheetWriter struct {
	f      *excelize.File
	sheet  string
	row    int
	widths []int
}

func newSheetWriter(sheet string, headers []string, headerStyle *excelize.Style) (*sheetWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	w := &sheetWriter{f: f, sheet: sheet, widths: make([]int, len(headers))}
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	if err := w.append(cells); err != nil {
		f.Close()
		return nil, err
	}

	style, err := f.NewStyle(headerStyle)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	return w, nil
}

func (w *sheetWriter) append(cells []interface{}) error {
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(w.sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.row, err)
	}
	for i, v := range cells {
		if i >= len(w.widths) {
			break
		}
		if n := utf8.RuneCountInString(fmt.Sprint(v)); n > w.widths[i] {
			w.widths[i] = n
		}
	}
	return nil
}

// styleColumn applies a style to every data row of one column.
func (w *sheetWriter) styleColumn(col int, style *excelize.Style) error {
	if w.row < 2 {
		return nil
	}
	id, err := w.f.NewStyle(style)
	if err != nil {
		return err
	}
	top, _ := excelize.CoordinatesToCellName(col, 2)
	bottom, _ := excelize.CoordinatesToCellName(col, w.row)
	return w.f.SetCellStyle(w.sheet, top, bottom, id)
}

// bytes sizes the columns to min(longest value + 2, 50) and serializes the
// workbook.
func (w *sheetWriter) bytes() ([]byte, error) {
	defer w.f.Close()

	for i, width := range w.widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		size := width + 2
		if size > maxColumnWidth {
			size = maxColumnWidth
		}
		if err := w.f.SetColWidth(w.sheet, name, name, float64(size)); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *sheetWriter) rows() int {
	return w.row - 1
}
