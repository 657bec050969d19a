package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parser"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/registry"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/rules"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/tabular"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/tabular/tabulartest"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/transform"
)

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	engine, err := rules.LoadEmbedded()
	require.NoError(t, err)
	base, err := parser.NewBase(tabular.NewAutoReader(), transform.NewNormalizer(engine), parser.DefaultOptions(), nil)
	require.NoError(t, err)
	p, err := New(registry.MustNew(base), nil)
	require.NoError(t, err)
	return p
}

func hanaStatement(t *testing.T) []byte {
	t.Helper()
	return tabulartest.XLSX(t,
		[]any{"하나은행 거래내역조회"},
		[]any{"계좌번호", "620-123456-78901"},
		nil,
		[]any{"거래일시", "적요", "의뢰인/수취인", "출금액", "입금액", "거래후잔액", "구분", "거래점"},
		[]any{"2024-01-15 10:30:00", "급여", "(주)하나상사", "", "100000", "100000", "입금", "본점"},
		[]any{"2024-01-20 14:00", "관리비", "관리사무소", "50000", "", "50000", "출금", ""},
	)
}

func jeonbukStatement(t *testing.T) []byte {
	t.Helper()
	return tabulartest.XLSX(t,
		[]any{"거래일자", "거래시간", "적요", "출금액", "입금액", "잔액", "상대예금주", "거래점", "메모"},
		[]any{"2024.02.01", "09:00:00", "이자", "", 120, 120, "", "", ""},
	)
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestParseBankStatement_Hana(t *testing.T) {
	p := newPipeline(t)
	result := p.ParseBankStatement(context.Background(), hanaStatement(t), "/tmp/하나은행_거래내역.xlsx")

	assert.Equal(t, domain.BankCodeHana, result.BankCode)
	assert.Equal(t, "하나은행", result.BankName)
	assert.Equal(t, "620-123456-78901", result.AccountNumber)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Transactions, 2)

	salary := result.Transactions[0]
	assert.Equal(t, "2024-01-15T10:30:00+09:00", salary.TransactionDate)
	assert.Equal(t, int64(100000), salary.DepositAmount())
	assert.Equal(t, string(domain.CategorySalary), salary.CategoryCode)
	assert.NotEmpty(t, salary.ID)

	rent := result.Transactions[1]
	assert.Equal(t, "2024-01-20T14:00:00+09:00", rent.TransactionDate)
	assert.Equal(t, int64(50000), rent.WithdrawalAmount())
}

func TestParseBankStatement_UnknownBank(t *testing.T) {
	p := newPipeline(t)
	result := p.ParseBankStatement(context.Background(), hanaStatement(t), "statement.xlsx")

	assert.Equal(t, domain.BankCodeNone, result.BankCode)
	assert.Equal(t, domain.UnknownBankName, result.BankName)
	assert.NotNil(t, result.Transactions)
	assert.Empty(t, result.Transactions)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "statement.xlsx")
}

func TestParseBankStatementWithAccount(t *testing.T) {
	p := newPipeline(t)

	// Detected from the account number, which also fills the missing account field
	result := p.ParseBankStatementWithAccount(context.Background(), jeonbukStatement(t), "export.xlsx", "501-12-345678")
	assert.Equal(t, domain.BankCodeJeonbuk, result.BankCode)
	assert.Equal(t, "501-12-345678", result.AccountNumber)
	require.Len(t, result.Transactions, 1, "errors: %v", result.Errors)
	assert.Equal(t, string(domain.CategoryInterest), result.Transactions[0].CategoryCode)

	// An account number in the file wins over the supplied one
	result = p.ParseBankStatementWithAccount(context.Background(), hanaStatement(t), "hana.xlsx", "620-999999-99999")
	assert.Equal(t, "620-123456-78901", result.AccountNumber)
}

func TestParseBankStatement_CorruptFile(t *testing.T) {
	p := newPipeline(t)
	result := p.ParseBankStatement(context.Background(), []byte("PK\x03\x04garbage"), "nonghyup.xlsx")

	assert.Equal(t, domain.BankCodeNonghyup, result.BankCode)
	assert.Empty(t, result.Transactions)
	assert.NotEmpty(t, result.Errors)
}

type panicParser struct{ bank domain.BankCode }

func (p panicParser) BankCode() domain.BankCode { return p.bank }
func (p panicParser) Name() string              { return "panic" }
func (p panicParser) Parse(context.Context, []byte) *domain.BankStatementParseResult {
	panic("boom")
}

func TestParseBankStatement_RecoversPanic(t *testing.T) {
	reg, err := registry.NewWith(
		panicParser{domain.BankCodeHana},
		panicParser{domain.BankCodeNonghyup},
		panicParser{domain.BankCodeJeonbuk},
	)
	require.NoError(t, err)
	p, err := New(reg, nil)
	require.NoError(t, err)

	var result *domain.BankStatementParseResult
	require.NotPanics(t, func() {
		result = p.ParseBankStatement(context.Background(), []byte("x"), "hana.xlsx")
	})
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "boom")
	assert.Empty(t, result.Transactions)
}

func TestParseFiles(t *testing.T) {
	p := newPipeline(t)

	files := []File{
		{Name: "하나_1.xlsx", Content: hanaStatement(t)},
		{Name: "unknown.csv", Content: []byte("a,b\n")},
		{Name: "jeonbuk.xlsx", Content: jeonbukStatement(t)},
	}
	for i := range 5 {
		files = append(files, File{Name: fmt.Sprintf("hana_%d.xlsx", i), Content: hanaStatement(t)})
	}

	results := p.ParseFiles(context.Background(), files, 2)
	require.Len(t, results, len(files))
	for i, r := range results {
		assert.Equal(t, files[i].Name, r.FileName, "order preserved")
		require.NotNil(t, r.Result)
	}
	assert.Len(t, results[0].Result.Transactions, 2)
	assert.Len(t, results[1].Result.Errors, 1)
	assert.Equal(t, domain.BankCodeJeonbuk, results[2].Result.BankCode)

	// Identical content parses to identical IDs regardless of scheduling
	assert.Equal(t, results[0].Result.Transactions[0].ID, results[3].Result.Transactions[0].ID)
}

func TestParseFiles_Cancelled(t *testing.T) {
	p := newPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := p.ParseFiles(ctx, []File{{Name: "hana.xlsx", Content: hanaStatement(t)}}, 1)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Result.Transactions)
	assert.NotEmpty(t, results[0].Result.Errors)
}

func TestParseFiles_BankHint(t *testing.T) {
	p := newPipeline(t)
	files := []File{
		{Name: "export.xlsx", Content: jeonbukStatement(t), BankHint: domain.BankCodeJeonbuk},
		{Name: "export.xlsx", Content: jeonbukStatement(t)},
	}

	results := p.ParseFiles(context.Background(), files, 0)
	assert.Equal(t, domain.BankCodeJeonbuk, results[0].Result.BankCode)
	assert.Len(t, results[0].Result.Transactions, 1)
	assert.Equal(t, domain.BankCodeNone, results[1].Result.BankCode)
	assert.Len(t, results[1].Result.Errors, 1)
}
