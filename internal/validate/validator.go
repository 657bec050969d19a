// Package validate checks parse results against the canonical transaction invariants.
package validate

import (
	"fmt"
	"strings"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
)

// ValidationResult contains all validation errors and warnings for a parse result
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError represents a violated invariant on one transaction
type ValidationError struct {
	Index   int // Position in the transaction list
	ID      string
	Field   string
	Value   string
	Message string
}

func (e ValidationError) String() string {
	return fmt.Sprintf("transaction %d (%s): %s: %s", e.Index+1, e.ID, e.Field, e.Message)
}

// ValidationWarning represents a non-critical validation issue
type ValidationWarning struct {
	Index   int
	ID      string
	Field   string
	Value   string
	Message string
}

// Valid reports whether no errors were found
func (r *ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// ValidateResult checks every transaction of r without modifying it.
//
// Errors: invalid bank code or mismatch with the result, unparsable or "undefined" date,
// not exactly one positive amount, negative amounts, empty or duplicate ID.
// Warnings: invalid category code, empty description.
func ValidateResult(r *domain.BankStatementParseResult) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}
	if r == nil {
		return result
	}

	ids := make(map[string]bool, len(r.Transactions))
	for i := range r.Transactions {
		txn := &r.Transactions[i]
		addErr := func(field, value, msg string) {
			result.Errors = append(result.Errors, ValidationError{Index: i, ID: txn.ID, Field: field, Value: value, Message: msg})
		}
		addWarn := func(field, value, msg string) {
			result.Warnings = append(result.Warnings, ValidationWarning{Index: i, ID: txn.ID, Field: field, Value: value, Message: msg})
		}

		if !txn.BankCode.Valid() {
			addErr("BankCode", string(txn.BankCode), "invalid bank code")
		} else if txn.BankCode != r.BankCode {
			addErr("BankCode", string(txn.BankCode), fmt.Sprintf("does not match statement bank %s", r.BankCode))
		}

		date := strings.TrimSpace(txn.TransactionDate)
		if date == "" || strings.EqualFold(date, "undefined") {
			addErr("TransactionDate", txn.TransactionDate, "transaction date cannot be empty")
		} else if _, err := txn.Time(); err != nil {
			addErr("TransactionDate", txn.TransactionDate, fmt.Sprintf("invalid date format (expected RFC 3339): %v", err))
		}

		deposit, withdrawal := txn.DepositAmount(), txn.WithdrawalAmount()
		if deposit < 0 {
			addErr("Deposits", fmt.Sprint(deposit), "deposit cannot be negative")
		}
		if withdrawal < 0 {
			addErr("Withdrawals", fmt.Sprint(withdrawal), "withdrawal cannot be negative")
		}
		if (deposit > 0) == (withdrawal > 0) {
			addErr("Deposits", fmt.Sprintf("%d/%d", deposit, withdrawal), "exactly one of deposits and withdrawals must be positive")
		}

		if txn.ID == "" {
			addErr("ID", "", "transaction ID cannot be empty")
		} else {
			if ids[txn.ID] {
				addErr("ID", txn.ID, "duplicate transaction ID")
			}
			ids[txn.ID] = true
		}

		if txn.CategoryCode != "" && !domain.ValidateCategory(domain.Category(txn.CategoryCode)) {
			addWarn("CategoryCode", txn.CategoryCode, "unknown category code")
		}
		if strings.TrimSpace(txn.Description) == "" {
			addWarn("Description", "", "description is empty")
		}
	}

	return result
}

// Enforce removes transactions that violate an invariant and records one error
// string per removed transaction in r.Errors. It returns the validation result.
func Enforce(r *domain.BankStatementParseResult) *ValidationResult {
	v := ValidateResult(r)
	if v.Valid() {
		return v
	}

	bad := make(map[int][]string)
	for _, e := range v.Errors {
		bad[e.Index] = append(bad[e.Index], e.Field+": "+e.Message)
	}

	kept := r.Transactions[:0:0]
	for i, txn := range r.Transactions {
		msgs, ok := bad[i]
		if !ok {
			kept = append(kept, txn)
			continue
		}
		r.AddError("transaction %d dropped: %s", i+1, strings.Join(msgs, "; "))
	}
	r.Transactions = kept
	return v
}
