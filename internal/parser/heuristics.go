package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/tabular"
)

// DefaultScanWindow is how many leading rows are searched for a variable-offset header
const DefaultScanWindow = 15

// Options tunes the shared row heuristics
type Options struct {
	// ScanWindow bounds the header search. Zero means DefaultScanWindow.
	ScanWindow int

	// HeaderFallback assumes the layout's default header row when no header
	// matches, recording a warning in the result instead of failing the file.
	HeaderFallback bool
}

// DefaultOptions returns the strict header policy with the standard scan window
func DefaultOptions() Options {
	return Options{ScanWindow: DefaultScanWindow}
}

func (o Options) window() int {
	if o.ScanWindow <= 0 {
		return DefaultScanWindow
	}
	return o.ScanWindow
}

// HeaderSpec describes how a layout's header row is found
type HeaderSpec struct {
	// Markers must all appear somewhere in the header row
	Markers []string

	// Fixed layouts keep the header at DefaultRow; only that row is checked
	Fixed bool

	// DefaultRow is the 0-based row assumed by fixed layouts and by the fallback policy
	DefaultRow int
}

// FindHeaderRow returns the index of the first row within the first window rows
// that contains every marker. The bool is false when no row matches.
func FindHeaderRow(rows []tabular.Row, window int, markers ...string) (int, bool) {
	if len(markers) == 0 {
		return 0, false
	}
	limit := min(window, len(rows))
	for i := 0; i < limit; i++ {
		if rowHasAll(rows[i], markers) {
			return i, true
		}
	}
	return 0, false
}

// LocateHeader applies spec and the header policy in opts.
// A non-empty warning means the fallback row was assumed.
func LocateHeader(rows []tabular.Row, spec HeaderSpec, opts Options) (row int, warning string, err error) {
	if spec.Fixed {
		if spec.DefaultRow < len(rows) && rowHasAll(rows[spec.DefaultRow], spec.Markers) {
			return spec.DefaultRow, "", nil
		}
		err = fmt.Errorf("%w at row %d (expected %s)", ErrHeaderNotFound, spec.DefaultRow+1, strings.Join(spec.Markers, ", "))
	} else {
		if idx, ok := FindHeaderRow(rows, opts.window(), spec.Markers...); ok {
			return idx, "", nil
		}
		err = fmt.Errorf("%w within first %d rows (expected %s)", ErrHeaderNotFound, opts.window(), strings.Join(spec.Markers, ", "))
	}

	if !opts.HeaderFallback {
		return 0, "", err
	}
	return spec.DefaultRow, fmt.Sprintf("warning: %v; assuming header at row %d", err, spec.DefaultRow+1), nil
}

// IsHeaderRepeat reports whether row repeats the header labels, as multi-page exports do
func IsHeaderRepeat(row tabular.Row, spec HeaderSpec) bool {
	return rowHasAll(row, spec.Markers)
}

func rowHasAll(row tabular.Row, markers []string) bool {
	for _, m := range markers {
		if !row.Contains(m) {
			return false
		}
	}
	return len(markers) > 0
}

var footerMarkers = []string{"합계", "소계", "총계", "건수"}

var footerCount = regexp.MustCompile(`^총\s*\d+\s*건`)

// IsFooterText reports whether a cell's text marks a subtotal or summary row
func IsFooterText(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, m := range footerMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return footerCount.MatchString(s)
}

// IsFooterRow checks the first cell and the date cell for footer markers
func IsFooterRow(row tabular.Row, dateColumn int) bool {
	return IsFooterText(row.Text(0)) || IsFooterText(row.Text(dateColumn))
}

var dateShape = regexp.MustCompile(`^\d{4}[/.\-]\d{1,2}[/.\-]\d{1,2}`)

// IsDateGap reports whether a date cell carries no usable date: blank,
// a literal "undefined" or "null", or text that does not start with a
// year-month-day triple. Such rows are skipped without an error entry.
func IsDateGap(s string) bool {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "undefined", "null":
		return true
	}
	return !dateShape.MatchString(s)
}

// Excel serials outside this range are not treated as dates (1954-10-06 .. 2173-10-14)
const (
	minDateSerial = 20000
	maxDateSerial = 100000
)

// DateCell returns the date text of a cell and the time of day it carries, if any.
// Text cells and numeric cells that already display a date pass through. Other
// numeric cells are decoded as compact YYYYMMDD or as Excel serials, whose day
// fraction becomes the clock. A number that is neither is an error, not a gap.
func DateCell(c tabular.Cell) (date, clock string, err error) {
	text := c.String()
	v, ok := c.Number()
	if !ok || !IsDateGap(text) {
		return text, "", nil
	}
	if v >= 19000101 && v <= 29991231 && v == math.Trunc(v) {
		s := strconv.FormatInt(int64(v), 10)
		return s[:4] + "." + s[4:6] + "." + s[6:], "", nil
	}
	if v < minDateSerial || v > maxDateSerial {
		return "", "", fmt.Errorf("invalid transaction date %q", text)
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return "", "", fmt.Errorf("invalid date serial %v: %w", v, err)
	}
	if _, frac := math.Modf(v); frac > 0 {
		clock = FractionToClock(frac)
	}
	return t.Format("2006.01.02"), clock, nil
}

// TimeCell returns the time-of-day text of a cell. Numeric cells without a
// displayed clock are read as a fraction of a day.
func TimeCell(c tabular.Cell) string {
	text := c.String()
	if v, ok := c.Number(); ok && !strings.Contains(text, ":") {
		if clock := FractionToClock(v); clock != "" {
			return clock
		}
	}
	return text
}

// FractionToClock formats a time of day stored as a fraction of a day.
// Values outside [0, 1) yield "".
func FractionToClock(v float64) string {
	if v < 0 || v >= 1 {
		return ""
	}
	secs := min(int(math.Round(v*24*60*60)), 24*60*60-1)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

var amountNoise = strings.NewReplacer(",", "", " ", "", "원", "", "₩", "", "\u00a0", "")

// ParseAmount parses a currency cell into whole units, rounding half away from zero.
// Empty, null and non-numeric values yield zero.
func ParseAmount(s string) int64 {
	s = amountNoise.Replace(strings.TrimSpace(s))
	switch strings.ToLower(s) {
	case "", "-", "undefined", "null":
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.Round(0).IntPart()
}

// ParseAmountCell prefers a numeric cell's raw value over its display text
func ParseAmountCell(c tabular.Cell) int64 {
	if v, ok := c.Number(); ok {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return decimal.NewFromFloat(v).Round(0).IntPart()
	}
	return ParseAmount(c.String())
}

// ParseOptionalAmountCell parses a cell that may be absent, such as a balance.
// The bool is false for blank cells and placeholder dashes.
func ParseOptionalAmountCell(c tabular.Cell) (int64, bool) {
	switch c.String() {
	case "", "-":
		return 0, false
	}
	return ParseAmountCell(c), true
}

var accountPattern = regexp.MustCompile(`\d[\d\- ]{7,}\d`)

// FindAccountNumber scans preamble rows for a cell carrying label and
// returns the account number printed after it or in a following cell.
func FindAccountNumber(preamble []tabular.Row, label string) string {
	for _, row := range preamble {
		for i, c := range row {
			text := c.String()
			idx := strings.Index(text, label)
			if idx < 0 {
				continue
			}
			if acct := accountPattern.FindString(text[idx+len(label):]); acct != "" {
				return strings.TrimSpace(acct)
			}
			for _, next := range row[i+1:] {
				if acct := accountPattern.FindString(next.String()); acct != "" {
					return strings.TrimSpace(acct)
				}
			}
		}
	}
	return ""
}
