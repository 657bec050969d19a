// Package hana parses 하나은행 (Hana Bank) transaction history exports.
//
// The export opens with an account preamble (계좌번호, 조회기간, ...) followed by a
// header row at a variable offset. Dates and times share one 거래일시 column.
package hana

import (
	"context"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parser"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/tabular"
)

// Header markers; both must appear in the header row
const (
	MarkerDateTime   = "거래일시"
	MarkerWithdrawal = "출금"
	AccountLabel     = "계좌번호"
)

// DefaultHeaderRow is assumed under the header fallback policy
const DefaultHeaderRow = 5

// Column layout
const (
	ColDateTime     = 0 // 거래일시
	ColDescription  = 1 // 적요
	ColCounterparty = 2 // 의뢰인/수취인
	ColWithdrawal   = 3 // 출금액
	ColDeposit      = 4 // 입금액
	ColBalance      = 5 // 거래후잔액
	ColKind         = 6 // 구분
	ColBranch       = 7 // 거래점
)

// Transaction is one Hana row as exported
type Transaction struct {
	RowNumber    int
	DateTime     string
	Description  string
	Counterparty string
	Withdrawal   int64
	Deposit      int64
	Balance      int64
	HasBalance   bool
	Kind         string
	Branch       string
}

// Raw implements parser.Record
func (t Transaction) Raw() parser.RawFields {
	return parser.RawFields{
		RowNumber:    t.RowNumber,
		Date:         t.DateTime,
		Description:  t.Description,
		Counterparty: t.Counterparty,
		Branch:       t.Branch,
		Memo:         t.Kind,
		Deposit:      t.Deposit,
		Withdrawal:   t.Withdrawal,
		Balance:      t.Balance,
		HasBalance:   t.HasBalance,
	}
}

type layout struct{}

func (layout) Bank() domain.BankCode { return domain.BankCodeHana }

func (layout) Header() parser.HeaderSpec {
	return parser.HeaderSpec{
		Markers:    []string{MarkerDateTime, MarkerWithdrawal},
		DefaultRow: DefaultHeaderRow,
	}
}

func (layout) DateColumn() int { return ColDateTime }

func (layout) AccountNumber(preamble []tabular.Row) string {
	return parser.FindAccountNumber(preamble, AccountLabel)
}

func (layout) Record(row tabular.Row, rowNumber int) (parser.Record, error) {
	date, clock, err := parser.DateCell(row.At(ColDateTime))
	if err != nil {
		return nil, err
	}
	if clock != "" {
		date += " " + clock
	}

	balance, hasBalance := parser.ParseOptionalAmountCell(row.At(ColBalance))
	return Transaction{
		RowNumber:    rowNumber,
		DateTime:     date,
		Description:  row.Text(ColDescription),
		Counterparty: row.Text(ColCounterparty),
		Withdrawal:   parser.ParseAmountCell(row.At(ColWithdrawal)),
		Deposit:      parser.ParseAmountCell(row.At(ColDeposit)),
		Balance:      balance,
		HasBalance:   hasBalance,
		Kind:         row.Text(ColKind),
		Branch:       row.Text(ColBranch),
	}, nil
}

// Parser implements parser.StatementParser for Hana Bank
type Parser struct {
	base *parser.Base
}

var _ parser.StatementParser = (*Parser)(nil)

// New creates a Hana parser on top of the shared row loop
func New(base *parser.Base) *Parser {
	return &Parser{base: base}
}

// BankCode returns domain.BankCodeHana
func (p *Parser) BankCode() domain.BankCode { return domain.BankCodeHana }

// Name returns "hana"
func (p *Parser) Name() string { return "hana" }

// Parse converts a Hana export into canonical transactions
func (p *Parser) Parse(ctx context.Context, content []byte) *domain.BankStatementParseResult {
	return p.base.Run(ctx, content, layout{})
}
