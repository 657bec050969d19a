// Package nonghyup parses NH농협은행 transaction history exports.
//
// The header follows a short preamble at a variable offset. Dates and times
// are separate columns, and the counterparty is qualified with the handling
// branch.
package nonghyup

import (
	"context"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parser"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/tabular"
)

// Header markers; both must appear in the header row
const (
	MarkerDate       = "거래일자"
	MarkerWithdrawal = "출금금액"
	AccountLabel     = "계좌번호"
)

// DefaultHeaderRow is assumed under the header fallback policy
const DefaultHeaderRow = 8

// Column layout
const (
	ColSeq         = 0 // 순번
	ColDate        = 1 // 거래일자, YYYY/MM/DD
	ColWithdrawal  = 2 // 출금금액
	ColDeposit     = 3 // 입금금액
	ColBalance     = 4 // 거래후잔액
	ColDescription = 5 // 거래내용
	ColRecord      = 6 // 거래기록사항
	ColBranch      = 7 // 거래점
	ColTime        = 8 // 거래시간, HH:MM:SS
	ColMemo        = 9 // 이체메모
)

// NonghyupTransaction is one Nonghyup row as exported
type NonghyupTransaction struct {
	RowNumber   int
	Seq         string
	Date        string
	Time        string
	Withdrawal  int64
	Deposit     int64
	Balance     int64
	HasBalance  bool
	Description string
	Record      string
	Branch      string
	Memo        string
}

// Raw implements parser.Record. The counterparty is the 거래기록사항 qualified by the handling branch.
func (t NonghyupTransaction) Raw() parser.RawFields {
	return parser.RawFields{
		RowNumber:         t.RowNumber,
		Date:              t.Date,
		Time:              t.Time,
		Description:       t.Description,
		Counterparty:      t.Record,
		Branch:            t.Branch,
		Memo:              t.Memo,
		QualifyWithBranch: true,
		Deposit:           t.Deposit,
		Withdrawal:        t.Withdrawal,
		Balance:           t.Balance,
		HasBalance:        t.HasBalance,
	}
}

type layout struct{}

func (layout) Bank() domain.BankCode { return domain.BankCodeNonghyup }

func (layout) Header() parser.HeaderSpec {
	return parser.HeaderSpec{
		Markers:    []string{MarkerDate, MarkerWithdrawal},
		DefaultRow: DefaultHeaderRow,
	}
}

func (layout) DateColumn() int { return ColDate }

func (layout) AccountNumber(preamble []tabular.Row) string {
	return parser.FindAccountNumber(preamble, AccountLabel)
}

func (layout) Record(row tabular.Row, rowNumber int) (parser.Record, error) {
	date, clock, err := parser.DateCell(row.At(ColDate))
	if err != nil {
		return nil, err
	}
	if t := parser.TimeCell(row.At(ColTime)); t != "" {
		clock = t
	}

	balance, hasBalance := parser.ParseOptionalAmountCell(row.At(ColBalance))
	return NonghyupTransaction{
		RowNumber:   rowNumber,
		Seq:         row.Text(ColSeq),
		Date:        date,
		Time:        clock,
		Withdrawal:  parser.ParseAmountCell(row.At(ColWithdrawal)),
		Deposit:     parser.ParseAmountCell(row.At(ColDeposit)),
		Balance:     balance,
		HasBalance:  hasBalance,
		Description: row.Text(ColDescription),
		Record:      row.Text(ColRecord),
		Branch:      row.Text(ColBranch),
		Memo:        row.Text(ColMemo),
	}, nil
}

// Parser implements parser.StatementParser for NH Nonghyup Bank
type Parser struct {
	base *parser.Base
}

var _ parser.StatementParser = (*Parser)(nil)

// New creates a Nonghyup parser on top of the shared row loop
func New(base *parser.Base) *Parser {
	return &Parser{base: base}
}

// BankCode returns domain.BankCodeNonghyup
func (p *Parser) BankCode() domain.BankCode { return domain.BankCodeNonghyup }

// Name returns "nonghyup"
func (p *Parser) Name() string { return "nonghyup" }

// Parse converts a Nonghyup export into canonical transactions
func (p *Parser) Parse(ctx context.Context, content []byte) *domain.BankStatementParseResult {
	return p.base.Run(ctx, content, layout{})
}
