// Package parser defines the per-institution statement parser contract and
// the row heuristics the institution layouts share.
package parser

import (
	"context"
	"errors"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/tabular"
)

// StatementParser is the strategy interface for one institution's export layout
type StatementParser interface {
	// BankCode returns the institution this parser handles
	BankCode() domain.BankCode

	// Name returns parser identifier (e.g., "hana", "nonghyup")
	Name() string

	// Parse converts a statement payload into canonical transactions.
	// Failures are reported in the result's Errors; Parse never returns nil.
	Parse(ctx context.Context, content []byte) *domain.BankStatementParseResult
}

// ErrHeaderNotFound is reported when no header row matches a layout's markers
var ErrHeaderNotFound = errors.New("header row not found")

// ErrSkipRow marks a row that is not a transaction and should be ignored without an error entry
var ErrSkipRow = errors.New("not a transaction row")

// Record is an institution-shaped intermediate transaction.
// Each layout keeps its own struct; Raw projects it onto the neutral fields the normalizer consumes.
type Record interface {
	Raw() RawFields
}

// RawFields holds one record's values exactly as positioned in the source layout,
// with amounts already parsed to whole currency units.
type RawFields struct {
	// RowNumber is the 1-based spreadsheet row the record came from
	RowNumber int

	// Date is the date or combined date-time text; Time is empty for combined fields
	Date string
	Time string

	Description  string
	Counterparty string
	Branch       string
	Memo         string

	// QualifyWithBranch appends " (Branch)" to the counterparty when Branch is set
	QualifyWithBranch bool

	Deposit    int64
	Withdrawal int64
	Balance    int64
	HasBalance bool
}

// Normalizer converts an intermediate record into the canonical transaction
type Normalizer interface {
	Normalize(bank domain.BankCode, rec Record) (*domain.ParsedTransaction, error)
}

// Layout is one institution's column layout and header convention
type Layout interface {
	Bank() domain.BankCode

	// Header describes how the header row is located
	Header() HeaderSpec

	// DateColumn is the column checked for footer markers alongside the first cell
	DateColumn() int

	// AccountNumber extracts the account number from the rows above the header; empty if absent
	AccountNumber(preamble []tabular.Row) string

	// Record extracts one data row. rowNumber is 1-based.
	// Return ErrSkipRow for rows that carry no transaction.
	Record(row tabular.Row, rowNumber int) (Record, error)
}
