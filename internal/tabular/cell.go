// Package tabular decodes spreadsheet payloads into rows of untyped cells.
package tabular

import (
	"strconv"
	"strings"
)

// Kind is the dynamic type of a cell
type Kind int

const (
	KindBlank Kind = iota
	KindText
	KindNumber
)

// Cell is one untyped spreadsheet value: blank, text, or number.
// Number cells keep the formatted text the spreadsheet displays alongside the raw value.
type Cell struct {
	kind Kind
	text string
	num  float64
}

// Blank returns an empty cell
func Blank() Cell { return Cell{} }

// Text returns a text cell; whitespace-only text is blank
func Text(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{kind: KindText, text: s}
}

// Number returns a numeric cell with its display text
func Number(v float64, display string) Cell {
	if display == "" {
		display = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return Cell{kind: KindNumber, text: display, num: v}
}

// Kind returns the cell type
func (c Cell) Kind() Kind { return c.kind }

// IsBlank reports whether the cell holds no value
func (c Cell) IsBlank() bool { return c.kind == KindBlank }

// String returns the trimmed display text of the cell
func (c Cell) String() string { return strings.TrimSpace(c.text) }

// Number returns the raw numeric value of a number cell
func (c Cell) Number() (float64, bool) {
	if c.kind != KindNumber {
		return 0, false
	}
	return c.num, true
}

// Row is one spreadsheet row positioned by column index
type Row []Cell

// At returns the cell at col, or a blank cell past the end of a ragged row
func (r Row) At(col int) Cell {
	if col < 0 || col >= len(r) {
		return Blank()
	}
	return r[col]
}

// Text returns the trimmed display text at col
func (r Row) Text(col int) string {
	return r.At(col).String()
}

// IsBlank reports whether every cell in the row is blank
func (r Row) IsBlank() bool {
	for _, c := range r {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// Contains reports whether any cell's text contains substr
func (r Row) Contains(substr string) bool {
	for _, c := range r {
		if strings.Contains(c.String(), substr) {
			return true
		}
	}
	return false
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// TextRow builds a row of text cells, mainly for tests and the CSV decoder
func TextRow(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Text(v)
	}
	return row
}
