// Package stats computes totals, monthly buckets and per-category breakdowns
// over parsed transactions. All functions are pure and tolerate empty input.
package stats

import (
	"cmp"
	"slices"
	"time"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
)

// Summary holds statement-wide totals
type Summary struct {
	Count           int    `json:"count"`
	TotalDeposit    int64  `json:"totalDeposit"`
	TotalWithdrawal int64  `json:"totalWithdrawal"`
	NetChange       int64  `json:"netChange"`
	FinalBalance    int64  `json:"finalBalance"`
	HasBalance      bool   `json:"hasBalance"`
	FirstDate       string `json:"firstDate,omitempty"`
	LastDate        string `json:"lastDate,omitempty"`
}

// MonthBucket aggregates transactions of one calendar month
type MonthBucket struct {
	Month      string `json:"month"` // YYYY-MM in the transaction's own offset
	Deposit    int64  `json:"deposit"`
	Withdrawal int64  `json:"withdrawal"`
	Count      int    `json:"count"`
}

// CategoryTotal aggregates transactions of one category code
type CategoryTotal struct {
	Category   string `json:"category"`
	Deposit    int64  `json:"deposit"`
	Withdrawal int64  `json:"withdrawal"`
	Count      int    `json:"count"`
}

// Report bundles every aggregate of a transaction set
type Report struct {
	Summary    Summary         `json:"summary"`
	Monthly    []MonthBucket   `json:"monthly"`
	ByCategory []CategoryTotal `json:"byCategory"`
}

// uncategorized is the bucket for transactions without a category code
const uncategorized = "uncategorized"

type dated struct {
	at    time.Time
	ok    bool
	index int
}

// chronological returns transaction indexes ordered by instant. Ties keep input
// order and unparsable dates sort first.
func chronological(txns []domain.ParsedTransaction) []dated {
	order := make([]dated, len(txns))
	for i := range txns {
		t, err := txns[i].Time()
		order[i] = dated{at: t, ok: err == nil, index: i}
	}
	slices.SortStableFunc(order, func(a, b dated) int {
		if a.ok != b.ok {
			if a.ok {
				return 1
			}
			return -1
		}
		return a.at.Compare(b.at)
	})
	return order
}

// Summarize computes totals. FinalBalance is the balance of the chronologically
// last transaction; HasBalance is false when that transaction carries none.
func Summarize(txns []domain.ParsedTransaction) Summary {
	var s Summary
	s.Count = len(txns)
	for i := range txns {
		s.TotalDeposit += txns[i].DepositAmount()
		s.TotalWithdrawal += txns[i].WithdrawalAmount()
	}
	s.NetChange = s.TotalDeposit - s.TotalWithdrawal

	order := chronological(txns)
	if len(order) == 0 {
		return s
	}

	for _, d := range order {
		if d.ok {
			s.FirstDate = txns[d.index].TransactionDate
			break
		}
	}
	last := order[len(order)-1]
	if last.ok {
		s.LastDate = txns[last.index].TransactionDate
	}
	if b := txns[last.index].Balance; b != nil {
		s.FinalBalance = *b
		s.HasBalance = true
	}
	return s
}

// Monthly buckets transactions by YYYY-MM, ascending. Transactions with an
// unparsable date are left out.
func Monthly(txns []domain.ParsedTransaction) []MonthBucket {
	buckets := make(map[string]*MonthBucket)
	for i := range txns {
		t, err := txns[i].Time()
		if err != nil {
			continue
		}
		key := t.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &MonthBucket{Month: key}
			buckets[key] = b
		}
		b.Deposit += txns[i].DepositAmount()
		b.Withdrawal += txns[i].WithdrawalAmount()
		b.Count++
	}

	out := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b MonthBucket) int { return cmp.Compare(a.Month, b.Month) })
	return out
}

// ByCategory totals transactions per category code, largest combined
// magnitude first, ties broken by category name.
func ByCategory(txns []domain.ParsedTransaction) []CategoryTotal {
	totals := make(map[string]*CategoryTotal)
	for i := range txns {
		key := txns[i].CategoryCode
		if key == "" {
			key = uncategorized
		}
		c, ok := totals[key]
		if !ok {
			c = &CategoryTotal{Category: key}
			totals[key] = c
		}
		c.Deposit += txns[i].DepositAmount()
		c.Withdrawal += txns[i].WithdrawalAmount()
		c.Count++
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, c := range totals {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b CategoryTotal) int {
		if n := cmp.Compare(b.Deposit+b.Withdrawal, a.Deposit+a.Withdrawal); n != 0 {
			return n
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// NewReport computes every aggregate over txns
func NewReport(txns []domain.ParsedTransaction) Report {
	return Report{
		Summary:    Summarize(txns),
		Monthly:    Monthly(txns),
		ByCategory: ByCategory(txns),
	}
}
