package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/record"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
)

// MaxRows bounds how many rows a single payload may decode to
const MaxRows = 200000

var (
	// ErrEmptyPayload is returned for zero-length content
	ErrEmptyPayload = errors.New("empty payload")
	// ErrUnsupportedFormat is returned for binary payloads that are not a known workbook container
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	// ErrTooManyRows is returned when a payload decodes past MaxRows
	ErrTooManyRows = fmt.Errorf("payload exceeds %d rows", MaxRows)
)

var (
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
)

// Reader decodes a spreadsheet payload into rows
type Reader interface {
	Read(content []byte) ([]Row, error)
}

// Format is the container format of a payload
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

// Sniff identifies the container format from the payload's magic bytes.
// Anything that is neither a ZIP nor an OLE2 compound document is treated as delimited text.
func Sniff(content []byte) Format {
	switch {
	case bytes.HasPrefix(content, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(content, ole2Magic):
		return FormatXLS
	default:
		return FormatCSV
	}
}

// AutoReader picks a decoder per payload by sniffing its format.
// It holds no state and is safe for concurrent use.
type AutoReader struct{}

// NewAutoReader returns a format-sniffing Reader
func NewAutoReader() *AutoReader {
	return &AutoReader{}
}

// Read decodes the first sheet of content
func (a *AutoReader) Read(content []byte) ([]Row, error) {
	if len(content) == 0 {
		return nil, ErrEmptyPayload
	}

	var (
		rows []Row
		err  error
	)
	format := Sniff(content)
	switch format {
	case FormatXLSX:
		rows, err = readXLSX(content)
	case FormatXLS:
		rows, err = readXLS(content)
	default:
		rows, err = readCSV(content)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload (%d bytes): %w", format, len(content), err)
	}
	if len(rows) > MaxRows {
		return nil, ErrTooManyRows
	}
	return rows, nil
}

// readXLSX decodes the first worksheet of an Office Open XML workbook.
// Numeric cells carry both the formatted text and the raw value so date serials survive.
func readXLSX(content []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	display, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(display) > MaxRows {
		return nil, ErrTooManyRows
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read raw values of sheet %q: %w", sheet, err)
	}

	rows := make([]Row, len(display))
	for i, displayRow := range display {
		row := make(Row, len(displayRow))
		for j, value := range displayRow {
			row[j] = xlsxCell(f, sheet, i, j, value, rawValue(raw, i, j))
		}
		rows[i] = row
	}
	return rows, nil
}

func rawValue(raw [][]string, row, col int) string {
	if row >= len(raw) || col >= len(raw[row]) {
		return ""
	}
	return raw[row][col]
}

// xlsxCell types one cell. String-typed cells stay text even when they look numeric.
func xlsxCell(f *excelize.File, sheet string, row, col int, display, raw string) Cell {
	if strings.TrimSpace(display) == "" {
		return Blank()
	}
	v, ok := parseFloat(raw)
	if !ok {
		return Text(display)
	}
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return Text(display)
	}
	cellType, err := f.GetCellType(sheet, ref)
	if err != nil {
		return Text(display)
	}
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeBool, excelize.CellTypeError:
		return Text(display)
	}
	return Number(v, display)
}

// readXLS decodes the first sheet of a legacy BIFF workbook.
// The BIFF decoder panics on some truncated records, so panics are returned as errors.
func readXLS(content []byte) (rows []Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("malformed xls workbook: %v", r)
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	if len(workbook.GetSheets()) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("failed to open first sheet: %w", err)
	}

	xlsRows := sheet.GetRows()
	if len(xlsRows) > MaxRows {
		return nil, ErrTooManyRows
	}

	rows = make([]Row, 0, len(xlsRows))
	for _, xlsRow := range xlsRows {
		cols := xlsRow.GetCols()
		row := make(Row, len(cols))
		for j, col := range cols {
			row[j] = xlsCell(col)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// xlsCell types one BIFF cell. NUMBER and RK records are numeric; dates are
// stored as plain serials in BIFF, so their display text is the serial itself.
func xlsCell(col structure.CellData) Cell {
	switch c := col.(type) {
	case *record.Number:
		return Number(c.GetFloat64(), c.GetString())
	case *record.Rk:
		return Number(c.GetFloat64(), c.GetString())
	default:
		return Text(col.GetString())
	}
}

// readCSV decodes delimited text. Non-UTF-8 payloads are assumed to be EUC-KR,
// which is what Korean internet banking exports default to.
func readCSV(content []byte) ([]Row, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if bytes.IndexByte(content, 0) >= 0 {
		return nil, ErrUnsupportedFormat
	}
	if !utf8.Valid(content) {
		decoded, err := korean.EUCKR.NewDecoder().Bytes(content)
		if err != nil {
			return nil, fmt.Errorf("payload is neither UTF-8 nor EUC-KR: %w", err)
		}
		content = decoded
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = sniffDelimiter(content)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) > MaxRows {
		return nil, ErrTooManyRows
	}

	rows := make([]Row, len(records))
	for i, record := range records {
		rows[i] = TextRow(record...)
	}
	return rows, nil
}

// sniffDelimiter picks tab when the first line has more tabs than commas
func sniffDelimiter(content []byte) rune {
	line := content
	if idx := bytes.IndexByte(content, '\n'); idx >= 0 {
		line = content[:idx]
	}
	if bytes.Count(line, []byte("\t")) > bytes.Count(line, []byte(",")) {
		return '\t'
	}
	return ','
}
