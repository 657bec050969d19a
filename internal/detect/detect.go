// Package detect infers which institution produced a statement file.
package detect

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
)

// Account number length bounds, digits only
const (
	MinAccountDigits = 10
	MaxAccountDigits = 16
)

type marker struct {
	text string
	bank domain.BankCode
}

// fileNameMarkers is evaluated in order; the first marker found in the name wins.
// Markers are lowercase NFC.
var fileNameMarkers = []marker{
	{"하나", domain.BankCodeHana},
	{"hana", domain.BankCodeHana},
	{"keb", domain.BankCodeHana},
	{"농협", domain.BankCodeNonghyup},
	{"nonghyup", domain.BankCodeNonghyup},
	{"nhbank", domain.BankCodeNonghyup},
	{"nh_", domain.BankCodeNonghyup},
	{"전북", domain.BankCodeJeonbuk},
	{"jeonbuk", domain.BankCodeJeonbuk},
	{"jbbank", domain.BankCodeJeonbuk},
}

// accountPrefixes maps leading account digits to an institution. Longest prefix wins.
var accountPrefixes = map[string]domain.BankCode{
	"301": domain.BankCodeNonghyup,
	"302": domain.BankCodeNonghyup,
	"312": domain.BankCodeNonghyup,
	"317": domain.BankCodeNonghyup,
	"351": domain.BankCodeNonghyup,
	"352": domain.BankCodeNonghyup,
	"355": domain.BankCodeNonghyup,
	"356": domain.BankCodeNonghyup,
	"501": domain.BankCodeJeonbuk,
	"502": domain.BankCodeJeonbuk,
	"507": domain.BankCodeJeonbuk,
	"620": domain.BankCodeHana,
	"630": domain.BankCodeHana,
	"910": domain.BankCodeHana,
}

var maxPrefixLen = func() int {
	n := 0
	for p := range accountPrefixes {
		n = max(n, len(p))
	}
	return n
}()

// FromFileName detects the institution from a file name marker.
// Directory components are ignored and matching is case-insensitive.
func FromFileName(fileName string) domain.BankDetectionResult {
	base := strings.ToLower(norm.NFC.String(filepath.Base(fileName)))
	if base == "" || base == "." {
		return domain.UnknownDetection()
	}
	for _, m := range fileNameMarkers {
		if strings.Contains(base, m.text) {
			return found(m.bank)
		}
	}
	return domain.UnknownDetection()
}

// FromAccountNumber detects the institution from an account number prefix.
// Hyphens and spaces are ignored; anything else that is not a digit fails detection.
func FromAccountNumber(accountNumber string) domain.BankDetectionResult {
	digits := NormalizeAccountNumber(accountNumber)
	if len(digits) < MinAccountDigits || len(digits) > MaxAccountDigits {
		return domain.UnknownDetection()
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return domain.UnknownDetection()
		}
	}
	for n := min(maxPrefixLen, len(digits)); n > 0; n-- {
		if bank, ok := accountPrefixes[digits[:n]]; ok {
			return found(bank)
		}
	}
	return domain.UnknownDetection()
}

// Detect tries the file name first and falls back to the account number
func Detect(fileName, accountNumber string) domain.BankDetectionResult {
	if r := FromFileName(fileName); r.Detected() {
		return r
	}
	if accountNumber == "" {
		return domain.UnknownDetection()
	}
	return FromAccountNumber(accountNumber)
}

// NormalizeAccountNumber strips the hyphens and spaces banks print inside account numbers
func NormalizeAccountNumber(accountNumber string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(accountNumber))
}

func found(bank domain.BankCode) domain.BankDetectionResult {
	return domain.BankDetectionResult{
		BankCode:   bank,
		BankName:   domain.BankName(bank),
		Confidence: domain.ConfidenceHigh,
	}
}
