package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
)

var csvHeader = []string{
	"id", "bank_code", "account_number", "transaction_date", "description",
	"counterparty", "deposit", "withdrawal", "balance", "category", "memo",
}

// WriteCSV writes every transaction of results as one flat table
func WriteCSV(w io.Writer, results []*domain.BankStatementParseResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		for i := range r.Transactions {
			txn := &r.Transactions[i]
			record := []string{
				txn.ID,
				string(txn.BankCode),
				r.AccountNumber,
				txn.TransactionDate,
				txn.Description,
				txn.Counterparty,
				optionalAmount(txn.Deposits),
				optionalAmount(txn.Withdrawals),
				optionalAmount(txn.Balance),
				txn.CategoryCode,
				txn.Memo,
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV row for %s: %w", txn.ID, err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func optionalAmount(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
