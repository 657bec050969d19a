// Package transform converts institution-shaped records into canonical transactions.
package transform

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parser"
)

// KST is the canonical zone for every statement instant. Korean Standard Time has no DST.
var KST = time.FixedZone("KST", 9*60*60)

// DefaultTime is used when a source gives a date without a time of day
const DefaultTime = "00:00:00"

// Categorizer assigns an advisory category code to a transaction
type Categorizer interface {
	Categorize(description string, deposit, withdrawal int64) string
}

// CategorizerFunc adapts a function to Categorizer
type CategorizerFunc func(description string, deposit, withdrawal int64) string

// Categorize calls f
func (f CategorizerFunc) Categorize(description string, deposit, withdrawal int64) string {
	return f(description, deposit, withdrawal)
}

// DirectionCategorizer tags deposits other_income and everything else other_expense
var DirectionCategorizer = CategorizerFunc(func(_ string, deposit, _ int64) string {
	if deposit > 0 {
		return string(domain.CategoryOtherIncome)
	}
	return string(domain.CategoryOtherExpense)
})

// Normalizer implements parser.Normalizer. It holds no mutable state.
type Normalizer struct {
	categorizer Categorizer
	loc         *time.Location
}

var _ parser.Normalizer = (*Normalizer)(nil)

// NewNormalizer creates a normalizer; a nil categorizer falls back to DirectionCategorizer
func NewNormalizer(categorizer Categorizer) *Normalizer {
	if categorizer == nil {
		categorizer = DirectionCategorizer
	}
	return &Normalizer{categorizer: categorizer, loc: KST}
}

// Normalize converts one intermediate record. Records without a usable date or
// without exactly one positive amount are rejected with an error.
func (n *Normalizer) Normalize(bank domain.BankCode, rec parser.Record) (*domain.ParsedTransaction, error) {
	if rec == nil {
		return nil, fmt.Errorf("record cannot be nil")
	}
	f := rec.Raw()

	instant, err := ParseInstant(f.Date, f.Time, n.loc)
	if err != nil {
		return nil, err
	}

	description := CleanText(f.Description)
	txn, err := domain.NewParsedTransaction(bank, instant, description, f.Deposit, f.Withdrawal)
	if err != nil {
		return nil, err
	}
	if f.HasBalance {
		txn.SetBalance(f.Balance)
	}
	txn.Counterparty = Counterparty(f)
	txn.Memo = CleanText(f.Memo)
	txn.CategoryCode = n.categorizer.Categorize(description, f.Deposit, f.Withdrawal)
	txn.ID = GenerateTransactionID(txn, f.RowNumber)
	return txn, nil
}

// Counterparty prefers the explicit counterparty field and falls back to the
// description. Layouts that ask for it get the branch appended in parentheses.
func Counterparty(f parser.RawFields) string {
	cp := CleanText(f.Counterparty)
	if cp == "" {
		cp = CleanText(f.Description)
	}
	if branch := CleanText(f.Branch); f.QualifyWithBranch && branch != "" {
		if cp == "" {
			return branch
		}
		return fmt.Sprintf("%s (%s)", cp, branch)
	}
	return cp
}

var (
	dateSeparators = strings.NewReplacer(".", "-", "/", "-")
	compactTime    = regexp.MustCompile(`^(\d{2}):?(\d{2}):?(\d{2})?$`)
)

var instantLayouts = []string{
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
}

// ParseInstant composes a date and an optional separate time of day into an instant in loc.
// date may carry its own time ("2024.01.15 10:30"); an empty timeOfDay means DefaultTime.
// "." and "/" date separators are accepted. Dates are never guessed.
func ParseInstant(date, timeOfDay string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, fmt.Errorf("missing transaction date")
	}

	datePart, inlineTime, _ := strings.Cut(strings.Join(strings.Fields(date), " "), " ")
	datePart = strings.TrimSuffix(dateSeparators.Replace(datePart), "-")

	clock := strings.TrimSpace(timeOfDay)
	if clock == "" {
		clock = strings.TrimSpace(inlineTime)
	}
	if clock == "" {
		clock = DefaultTime
	}
	if m := compactTime.FindStringSubmatch(clock); m != nil {
		sec := m[3]
		if sec == "" {
			sec = "00"
		}
		clock = m[1] + ":" + m[2] + ":" + sec
	}

	value := datePart + " " + clock
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid transaction date %q", strings.TrimSpace(date+" "+timeOfDay))
}
