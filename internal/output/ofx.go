package output

import (
	"fmt"
	"io"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/detect"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/stats"
)

// OFXCurrency is the currency of every supported institution
const OFXCurrency = "KRW"

// unknownAccount is written when neither the file nor the caller supplied an account number
const unknownAccount = "UNKNOWN"

var ofxNamespace = uuid.MustParse("4a4f1d2e-8b63-4c14-9d0b-0c3b6f7e52a1")

// WriteOFX writes result as an OFX 2.2 bank statement response.
// Deposits become CREDIT and withdrawals DEBIT; FITID is the transaction ID
// and the ledger balance is the final balance of the statement.
func WriteOFX(w io.Writer, result *domain.BankStatementParseResult) error {
	resp, err := buildOFX(result)
	if err != nil {
		return err
	}
	buf, err := resp.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal OFX: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write OFX: %w", err)
	}
	return nil
}

func buildOFX(result *domain.BankStatementParseResult) (*ofxgo.Response, error) {
	if result == nil {
		return nil, fmt.Errorf("result cannot be nil")
	}

	currency, err := ofxgo.NewCurrSymbol(OFXCurrency)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %s: %w", OFXCurrency, err)
	}

	summary := stats.Summarize(result.Transactions)
	start := parseOrZero(summary.FirstDate)
	end := parseOrZero(summary.LastDate)

	list := &ofxgo.TransactionList{
		DtStart: ofxgo.Date{Time: start},
		DtEnd:   ofxgo.Date{Time: end},
	}
	for i := range result.Transactions {
		txn, err := ofxTransaction(&result.Transactions[i])
		if err != nil {
			return nil, err
		}
		list.Transactions = append(list.Transactions, txn)
	}

	account := detect.NormalizeAccountNumber(result.AccountNumber)
	if account == "" {
		account = unknownAccount
	}

	stmt := &ofxgo.StatementResponse{
		TrnUID: ofxgo.UID(uuid.NewSHA1(ofxNamespace, []byte(fmt.Sprintf("%s|%s|%s|%s",
			result.BankCode, account, summary.FirstDate, summary.LastDate))).String()),
		Status: ofxgo.Status{Code: 0, Severity: "INFO"},
		CurDef: *currency,
		BankAcctFrom: ofxgo.BankAcct{
			BankID:   ofxgo.String(result.BankCode),
			AcctID:   ofxgo.String(account),
			AcctType: ofxgo.AcctTypeChecking,
		},
		BankTranList: list,
		DtAsOf:       ofxgo.Date{Time: end},
	}
	stmt.BalAmt.SetInt64(summary.FinalBalance)

	return &ofxgo.Response{
		Version: ofxgo.OfxVersion220,
		Signon: ofxgo.SignonResponse{
			Status:   ofxgo.Status{Code: 0, Severity: "INFO"},
			DtServer: ofxgo.Date{Time: end},
			Language: "KOR",
		},
		Bank: []ofxgo.Message{stmt},
	}, nil
}

func ofxTransaction(txn *domain.ParsedTransaction) (ofxgo.Transaction, error) {
	posted, err := txn.Time()
	if err != nil {
		return ofxgo.Transaction{}, fmt.Errorf("transaction %s: invalid date %q: %w", txn.ID, txn.TransactionDate, err)
	}

	out := ofxgo.Transaction{
		DtPosted: ofxgo.Date{Time: posted},
		FiTID:    ofxgo.String(txn.ID),
		Name:     ofxgo.String(txn.Description),
	}
	switch {
	case txn.Memo != "":
		out.Memo = ofxgo.String(txn.Memo)
	case txn.Counterparty != "" && txn.Counterparty != txn.Description:
		out.Memo = ofxgo.String(txn.Counterparty)
	}

	if deposit := txn.DepositAmount(); deposit > 0 {
		out.TrnType = ofxgo.TrnTypeCredit
		out.TrnAmt.SetInt64(deposit)
	} else {
		out.TrnType = ofxgo.TrnTypeDebit
		out.TrnAmt.SetInt64(-txn.WithdrawalAmount())
	}
	return out, nil
}

func parseOrZero(s string) time.Time {
	t, err := time.Parse(domain.TransactionDateLayout, s)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}
