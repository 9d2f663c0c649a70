// Package workbook exposes the text cells of an XLSX spreadsheet as spans so their prices
// can be converted in place.
package workbook

import (
	"fmt"
	"go-price-converter/domain"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook a spreadsheet whose cells are spans identified as "Sheet!A1"
type Workbook struct {
	file *excelize.File

	// styles the emphasis style of each color
	styles map[string]int

	// previous the style a cell had before its emphasis was applied
	previous map[domain.SpanID]int
}

// Open reads an XLSX file
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %v: %w", path, err)
	}
	return New(f), nil
}

// New wraps an open spreadsheet
func New(f *excelize.File) *Workbook {
	return &Workbook{
		file:     f,
		styles:   map[string]int{},
		previous: map[domain.SpanID]int{},
	}
}

// SpanID the span identifier of a cell
func SpanID(sheet, cell string) domain.SpanID {
	return domain.SpanID(sheet + "!" + cell)
}

// Spans returns every non-empty cell, sheet by sheet, row by row.
func (w *Workbook) Spans() ([]domain.Span, error) {
	var spans []domain.Span
	for _, sheet := range w.file.GetSheetList() {
		rows, err := w.file.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %v: %w", sheet, err)
		}
		for r, row := range rows {
			for c, value := range row {
				if strings.TrimSpace(value) == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, err
				}
				spans = append(spans, domain.Span{ID: SpanID(sheet, cell), Text: value})
			}
		}
	}
	return spans, nil
}

// Apply writes replacement texts into their cells. Converted cells are emphasized in color
// when it is a hex RGB value.
func (w *Workbook) Apply(replacements []domain.Replacement, color string) error {
	for _, r := range replacements {
		sheet, cell, err := split(r.SpanID)
		if err != nil {
			return err
		}
		if err := w.file.SetCellStr(sheet, cell, r.Text); err != nil {
			return fmt.Errorf("write %v: %w", r.SpanID, err)
		}

		if !r.Converted() {
			if err := w.restoreStyle(r.SpanID, sheet, cell); err != nil {
				return err
			}
			continue
		}
		if err := w.emphasize(r.SpanID, sheet, cell, color); err != nil {
			return err
		}
	}
	return nil
}

// Restore writes original texts back into their cells
func (w *Workbook) Restore(restored []domain.Restored) error {
	for _, r := range restored {
		sheet, cell, err := split(r.SpanID)
		if err != nil {
			return err
		}
		if err := w.file.SetCellStr(sheet, cell, r.Original); err != nil {
			return fmt.Errorf("write %v: %w", r.SpanID, err)
		}
		if err := w.restoreStyle(r.SpanID, sheet, cell); err != nil {
			return err
		}
	}
	return nil
}

// SaveAs writes the workbook to path
func (w *Workbook) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %v: %w", path, err)
	}
	return nil
}

// Close releases the spreadsheet
func (w *Workbook) Close() error {
	return w.file.Close()
}

var hexColor = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

func (w *Workbook) emphasize(id domain.SpanID, sheet, cell, color string) error {
	if !hexColor.MatchString(color) {
		return nil
	}

	if _, ok := w.previous[id]; !ok {
		style, err := w.file.GetCellStyle(sheet, cell)
		if err != nil {
			return fmt.Errorf("style of %v: %w", id, err)
		}
		w.previous[id] = style
	}

	style, ok := w.styles[color]
	if !ok {
		var err error
		style, err = w.file.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Color: strings.TrimPrefix(color, "#")},
		})
		if err != nil {
			return fmt.Errorf("emphasis style %v: %w", color, err)
		}
		w.styles[color] = style
	}

	return w.file.SetCellStyle(sheet, cell, cell, style)
}

func (w *Workbook) restoreStyle(id domain.SpanID, sheet, cell string) error {
	style, ok := w.previous[id]
	if !ok {
		return nil
	}
	delete(w.previous, id)
	return w.file.SetCellStyle(sheet, cell, cell, style)
}

// split a span id into sheet and cell
func split(id domain.SpanID) (string, string, error) {
	i := strings.LastIndex(string(id), "!")
	if i <= 0 || i == len(id)-1 {
		return "", "", fmt.Errorf("span %q is not a cell reference", id)
	}
	return string(id[:i]), string(id[i+1:]), nil
}
