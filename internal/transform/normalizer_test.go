package transform

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parser"
)

type fieldsRecord parser.RawFields

func (r fieldsRecord) Raw() parser.RawFields { return parser.RawFields(r) }

func TestParseInstant(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		clock   string
		want    string
		wantErr bool
	}{
		{name: "combined with seconds", date: "2024-01-15 10:30:00", want: "2024-01-15T10:30:00+09:00"},
		{name: "combined without seconds", date: "2024.01.15 10:30", want: "2024-01-15T10:30:00+09:00"},
		{name: "slash date separate time", date: "2024/01/15", clock: "09:05:03", want: "2024-01-15T09:05:03+09:00"},
		{name: "dotted date default time", date: "2024.1.5", want: "2024-01-05T00:00:00+09:00"},
		{name: "trailing dot", date: "2024.01.15.", want: "2024-01-15T00:00:00+09:00"},
		{name: "compact time", date: "2024-01-15", clock: "235959", want: "2024-01-15T23:59:59+09:00"},
		{name: "separate time wins", date: "2024-01-15 01:00:00", clock: "02:00:00", want: "2024-01-15T02:00:00+09:00"},
		{name: "empty", date: "", wantErr: true},
		{name: "invalid month", date: "2024-13-01", wantErr: true},
		{name: "invalid day", date: "2024-02-30", wantErr: true},
		{name: "garbage time", date: "2024-01-15", clock: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInstant(tt.date, tt.clock, KST)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format(time.RFC3339))
		})
	}
}

func TestCounterparty(t *testing.T) {
	tests := []struct {
		name   string
		fields parser.RawFields
		want   string
	}{
		{"explicit", parser.RawFields{Counterparty: "홍길동", Description: "타행이체"}, "홍길동"},
		{"falls back to description", parser.RawFields{Description: "  이자  "}, "이자"},
		{"branch qualifier", parser.RawFields{Counterparty: "홍길동", Branch: "서울지점", QualifyWithBranch: true}, "홍길동 (서울지점)"},
		{"branch ignored unless asked", parser.RawFields{Counterparty: "홍길동", Branch: "서울지점"}, "홍길동"},
		{"qualifier without branch", parser.RawFields{Counterparty: "홍길동", QualifyWithBranch: true}, "홍길동"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Counterparty(tt.fields))
		})
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(nil)

	t.Run("deposit", func(t *testing.T) {
		rec := fieldsRecord{
			RowNumber:   4,
			Date:        "2024/01/15",
			Time:        "10:30:00",
			Description: "급여",
			Memo:        " 1월 ",
			Deposit:     100000,
			Balance:     1100000,
			HasBalance:  true,
		}
		txn, err := n.Normalize(domain.BankCodeNonghyup, rec)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-15T10:30:00+09:00", txn.TransactionDate)
		assert.Equal(t, int64(100000), txn.DepositAmount())
		assert.Nil(t, txn.Withdrawals)
		require.NotNil(t, txn.Balance)
		assert.Equal(t, int64(1100000), *txn.Balance)
		assert.Equal(t, "급여", txn.Counterparty)
		assert.Equal(t, "1월", txn.Memo)
		assert.Equal(t, string(domain.CategoryOtherIncome), txn.CategoryCode)
		assert.NotEmpty(t, txn.ID)

		again, err := n.Normalize(domain.BankCodeNonghyup, rec)
		require.NoError(t, err)
		assert.Equal(t, txn, again, "normalization must be deterministic")
	})

	t.Run("withdrawal without balance", func(t *testing.T) {
		txn, err := n.Normalize(domain.BankCodeHana, fieldsRecord{Date: "2024-01-16 09:00", Description: "카드", Withdrawal: 50000})
		require.NoError(t, err)
		assert.Nil(t, txn.Balance)
		assert.Equal(t, string(domain.CategoryOtherExpense), txn.CategoryCode)
	})

	t.Run("custom categorizer", func(t *testing.T) {
		c := CategorizerFunc(func(desc string, _, _ int64) string {
			if strings.Contains(desc, "이자") {
				return string(domain.CategoryInterest)
			}
			return ""
		})
		txn, err := NewNormalizer(c).Normalize(domain.BankCodeJeonbuk, fieldsRecord{Date: "2024-01-31", Description: "예금이자", Deposit: 12})
		require.NoError(t, err)
		assert.Equal(t, string(domain.CategoryInterest), txn.CategoryCode)
	})

	rejected := []struct {
		name string
		rec  fieldsRecord
		want string
	}{
		{"both zero", fieldsRecord{Date: "2024-01-15"}, "both zero"},
		{"both set", fieldsRecord{Date: "2024-01-15", Deposit: 1, Withdrawal: 1}, "both set"},
		{"bad date", fieldsRecord{Date: "2024-02-30", Deposit: 1}, "invalid transaction date"},
		{"missing date", fieldsRecord{Deposit: 1}, "missing transaction date"},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(domain.BankCodeHana, tt.rec)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := n.Normalize(domain.BankCodeHana, nil)
	assert.Error(t, err)
}
