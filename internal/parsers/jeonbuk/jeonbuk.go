// Package jeonbuk parses 전북은행 (Jeonbuk Bank) transaction history exports.
//
// Jeonbuk exports carry no preamble: the header is always the first row and
// the account number must be supplied by the caller. The date column is either
// YYYY.MM.DD text or a date-formatted Excel serial.
package jeonbuk

import (
	"context"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parser"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/tabular"
)

// MarkerDate validates the fixed header row
const MarkerDate = "거래일자"

// HeaderRow is the fixed 0-based header position
const HeaderRow = 0

// Column layout
const (
	ColDate         = 0 // 거래일자
	ColTime         = 1 // 거래시간
	ColDescription  = 2 // 적요
	ColWithdrawal   = 3 // 출금액
	ColDeposit      = 4 // 입금액
	ColBalance      = 5 // 잔액
	ColCounterparty = 6 // 상대예금주
	ColBranch       = 7 // 거래점
	ColMemo         = 8 // 메모
)

// JeonbukTransaction is one Jeonbuk row as exported
type JeonbukTransaction struct {
	RowNumber    int
	Date         string
	Time         string
	Description  string
	Withdrawal   int64
	Deposit      int64
	Balance      int64
	HasBalance   bool
	Counterparty string
	Branch       string
	Memo         string
}

// Raw implements parser.Record
func (t JeonbukTransaction) Raw() parser.RawFields {
	return parser.RawFields{
		RowNumber:    t.RowNumber,
		Date:         t.Date,
		Time:         t.Time,
		Description:  t.Description,
		Counterparty: t.Counterparty,
		Branch:       t.Branch,
		Memo:         t.Memo,
		Deposit:      t.Deposit,
		Withdrawal:   t.Withdrawal,
		Balance:      t.Balance,
		HasBalance:   t.HasBalance,
	}
}

type layout struct{}

func (layout) Bank() domain.BankCode { return domain.BankCodeJeonbuk }

func (layout) Header() parser.HeaderSpec {
	return parser.HeaderSpec{
		Markers:    []string{MarkerDate},
		Fixed:      true,
		DefaultRow: HeaderRow,
	}
}

func (layout) DateColumn() int { return ColDate }

// AccountNumber is never present in a Jeonbuk export
func (layout) AccountNumber([]tabular.Row) string { return "" }

func (layout) Record(row tabular.Row, rowNumber int) (parser.Record, error) {
	date, clock, err := parser.DateCell(row.At(ColDate))
	if err != nil {
		return nil, err
	}
	if t := parser.TimeCell(row.At(ColTime)); t != "" {
		clock = t
	}

	balance, hasBalance := parser.ParseOptionalAmountCell(row.At(ColBalance))
	return JeonbukTransaction{
		RowNumber:    rowNumber,
		Date:         date,
		Time:         clock,
		Description:  row.Text(ColDescription),
		Withdrawal:   parser.ParseAmountCell(row.At(ColWithdrawal)),
		Deposit:      parser.ParseAmountCell(row.At(ColDeposit)),
		Balance:      balance,
		HasBalance:   hasBalance,
		Counterparty: row.Text(ColCounterparty),
		Branch:       row.Text(ColBranch),
		Memo:         row.Text(ColMemo),
	}, nil
}

// Parser implements parser.StatementParser for Jeonbuk Bank
type Parser struct {
	base *parser.Base
}

var _ parser.StatementParser = (*Parser)(nil)

// New creates a Jeonbuk parser on top of the shared row loop
func New(base *parser.Base) *Parser {
	return &Parser{base: base}
}

// BankCode returns domain.BankCodeJeonbuk
func (p *Parser) BankCode() domain.BankCode { return domain.BankCodeJeonbuk }

// Name returns "jeonbuk"
func (p *Parser) Name() string { return "jeonbuk" }

// Parse converts a Jeonbuk export into canonical transactions
func (p *Parser) Parse(ctx context.Context, content []byte) *domain.BankStatementParseResult {
	return p.base.Run(ctx, content, layout{})
}
