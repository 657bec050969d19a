package transform

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
)

// transactionNamespace scopes the name-based transaction UUIDs
var transactionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("bankstmt/transaction"))

// cleaner drops control characters and composes Hangul jamo into syllables
var cleaner = transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cc)))

// CleanText NFC-normalizes s, removes control characters and collapses runs of whitespace.
// Text that fails to transform is returned trimmed but otherwise unchanged.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	// Tabs and newlines are control characters; turn them into spaces before removal
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
	cleaned, _, err := transform.String(cleaner, s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(cleaned), " ")
}

// GenerateTransactionID creates a deterministic transaction ID.
// The same row of the same file always yields the same ID; ordinal separates
// otherwise identical rows in one statement.
// Format: a version 5 UUID, e.g. "1b4e28ba-2fa1-51d2-883f-0016d3cca427"
func GenerateTransactionID(txn *domain.ParsedTransaction, ordinal int) string {
	balance := "-"
	if txn.Balance != nil {
		balance = strconv.FormatInt(*txn.Balance, 10)
	}
	key := strings.Join([]string{
		string(txn.BankCode),
		txn.TransactionDate,
		strconv.FormatInt(txn.DepositAmount(), 10),
		strconv.FormatInt(txn.WithdrawalAmount(), 10),
		balance,
		txn.Description,
		strconv.Itoa(ordinal),
	}, "|")
	return uuid.NewSHA1(transactionNamespace, []byte(key)).String()
}

// MaskAccountNumber keeps the last 4 digits of an account number for display.
// Examples: "620-123456-78901" → "****8901", "123" → "123", "" → ""
func MaskAccountNumber(accountNumber string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, accountNumber)
	if len(digits) <= 4 {
		return digits
	}
	return fmt.Sprintf("****%s", digits[len(digits)-4:])
}
