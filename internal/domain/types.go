// Package domain holds the canonical, institution-agnostic statement types.
package domain

import (
	"fmt"
	"time"
)

// BankCode identifies a supported institution. The set is closed; use Valid to check.
type BankCode string

const (
	// BankCodeNone marks a file whose institution could not be detected
	BankCodeNone     BankCode = ""
	BankCodeHana     BankCode = "HANA"
	BankCodeNonghyup BankCode = "NONGHYUP"
	BankCodeJeonbuk  BankCode = "JEONBUK"
)

// UnknownBankName is the display name reported when detection fails
const UnknownBankName = "unknown"

var bankNames = map[BankCode]string{
	BankCodeHana:     "하나은행",
	BankCodeNonghyup: "NH농협은행",
	BankCodeJeonbuk:  "전북은행",
}

// AllBankCodes returns every supported institution in a stable order
func AllBankCodes() []BankCode {
	return []BankCode{BankCodeHana, BankCodeNonghyup, BankCodeJeonbuk}
}

// Valid reports whether c is one of the supported institutions
func (c BankCode) Valid() bool {
	_, ok := bankNames[c]
	return ok
}

// NameLookup maps an institution code to its display name
type NameLookup func(BankCode) string

// BankName is the default NameLookup. Unsupported codes return UnknownBankName.
func BankName(c BankCode) string {
	if name, ok := bankNames[c]; ok {
		return name
	}
	return UnknownBankName
}

// Confidence grades a detection result
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// BankDetectionResult is the outcome of source detection.
// A ConfidenceLow result means the file is unsupported, not that the guess is uncertain.
type BankDetectionResult struct {
	BankCode   BankCode   `json:"bankCode"`
	BankName   string     `json:"bankName"`
	Confidence Confidence `json:"confidence"`
}

// Detected reports whether the result names a supported institution
func (r BankDetectionResult) Detected() bool {
	return r.BankCode.Valid() && r.Confidence != ConfidenceLow
}

// UnknownDetection is returned when no institution marker matches
func UnknownDetection() BankDetectionResult {
	return BankDetectionResult{
		BankCode:   BankCodeNone,
		BankName:   UnknownBankName,
		Confidence: ConfidenceLow,
	}
}

// TransactionDateLayout is the canonical transaction date encoding (RFC 3339 with offset)
const TransactionDateLayout = time.RFC3339

// ParsedTransaction is the canonical transaction record.
// Exactly one of Deposits and Withdrawals is set and positive.
// Amounts are whole currency units.
type ParsedTransaction struct {
	ID              string   `json:"id"`
	TransactionDate string   `json:"transactionDate"`
	Description     string   `json:"description"`
	Counterparty    string   `json:"counterparty,omitempty"`
	Deposits        *int64   `json:"deposits,omitempty"`
	Withdrawals     *int64   `json:"withdrawals,omitempty"`
	Balance         *int64   `json:"balance,omitempty"`
	Memo            string   `json:"memo,omitempty"`
	BankCode        BankCode `json:"bankCode"`
	CategoryCode    string   `json:"categoryCode,omitempty"`
}

// NewParsedTransaction creates a validated canonical transaction.
// deposit and withdrawal are whole currency units; exactly one must be positive.
func NewParsedTransaction(bank BankCode, date time.Time, description string, deposit, withdrawal int64) (*ParsedTransaction, error) {
	if !bank.Valid() {
		return nil, fmt.Errorf("invalid bank code %q", bank)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("transaction date cannot be zero")
	}
	if deposit < 0 || withdrawal < 0 {
		return nil, fmt.Errorf("amounts cannot be negative (deposit %d, withdrawal %d)", deposit, withdrawal)
	}
	if deposit == 0 && withdrawal == 0 {
		return nil, fmt.Errorf("deposit and withdrawal are both zero")
	}
	if deposit > 0 && withdrawal > 0 {
		return nil, fmt.Errorf("deposit %d and withdrawal %d are both set", deposit, withdrawal)
	}

	txn := &ParsedTransaction{
		TransactionDate: date.Format(TransactionDateLayout),
		Description:     description,
		BankCode:        bank,
	}
	if deposit > 0 {
		txn.Deposits = &deposit
	} else {
		txn.Withdrawals = &withdrawal
	}
	return txn, nil
}

// SetBalance records the post-transaction balance
func (t *ParsedTransaction) SetBalance(balance int64) {
	t.Balance = &balance
}

// DepositAmount returns the deposit or zero
func (t *ParsedTransaction) DepositAmount() int64 {
	if t.Deposits == nil {
		return 0
	}
	return *t.Deposits
}

// WithdrawalAmount returns the withdrawal or zero
func (t *ParsedTransaction) WithdrawalAmount() int64 {
	if t.Withdrawals == nil {
		return 0
	}
	return *t.Withdrawals
}

// Time parses TransactionDate
func (t *ParsedTransaction) Time() (time.Time, error) {
	return time.Parse(TransactionDateLayout, t.TransactionDate)
}

// BankStatementParseResult is the output for one ingested file.
// Errors is the only failure signal; callers must inspect it even when Transactions is non-empty.
type BankStatementParseResult struct {
	BankCode      BankCode            `json:"bankCode"`
	BankName      string              `json:"bankName"`
	AccountNumber string              `json:"accountNumber"`
	Transactions  []ParsedTransaction `json:"transactions"`
	Errors        []string            `json:"errors"`
}

// NewParseResult creates an empty result for the given institution
func NewParseResult(bank BankCode) *BankStatementParseResult {
	return &BankStatementParseResult{
		BankCode:     bank,
		BankName:     BankName(bank),
		Transactions: []ParsedTransaction{},
		Errors:       []string{},
	}
}

// FailedResult creates a result carrying a single error and no transactions
func FailedResult(bank BankCode, format string, args ...any) *BankStatementParseResult {
	r := NewParseResult(bank)
	r.AddError(format, args...)
	return r
}

// AddError appends a formatted error message
func (r *BankStatementParseResult) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// AddTransaction appends a transaction
func (r *BankStatementParseResult) AddTransaction(txn ParsedTransaction) {
	r.Transactions = append(r.Transactions, txn)
}

// HasErrors reports whether any file- or row-level failure was recorded
func (r *BankStatementParseResult) HasErrors() bool {
	return len(r.Errors) > 0
}
