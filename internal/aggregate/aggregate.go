// Package aggregate computes the derived summaries behind the dashboard and
// lend/borrow views: per-category and per-month rollups, grand totals, and
// pending balances. Every function is pure; inputs are never mutated and an
// empty input yields an empty (or zero) result.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Uncategorized is the bucket used for transactions with no category.
const Uncategorized = "Uncategorized"

// ByCategory sums amounts per distinct category. Categories are compared
// case-sensitively and untrimmed; rows appear in first-seen order.
func ByCategory(txs []core.Transaction) []core.CategorySummary {
	totals := make(map[string]decimal.Decimal, len(txs))
	order := make([]string, 0, len(txs))

	for _, tx := range txs {
		key := tx.Category
		if key == "" {
			key = Uncategorized
		}
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] = totals[key].Add(tx.Amount)
	}

	out := make([]core.CategorySummary, 0, len(order))
	for _, key := range order {
		out = append(out, core.CategorySummary{Category: key, Total: totals[key]})
	}
	return out
}

// ByMonth buckets amounts by the transaction's calendar month, labelled
// "Jan 2006". Buckets appear in first-seen order, matching the chart the
// rollup feeds.
func ByMonth(txs []core.Transaction) []core.MonthSummary {
	totals := make(map[string]decimal.Decimal, len(txs))
	order := make([]string, 0, len(txs))

	for _, tx := range txs {
		key := tx.Date.MonthLabel()
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] = totals[key].Add(tx.Amount)
	}

	out := make([]core.MonthSummary, 0, len(order))
	for _, key := range order {
		out = append(out, core.MonthSummary{Month: key, Total: totals[key]})
	}
	return out
}

// Total sums every amount with no filtering. All-time figures include
// settled lend/borrow entries; only the pending balances exclude them.
func Total(txs []core.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Amount)
	}
	return sum
}

// EntriesTotal sums every lend/borrow amount, settled or not.
func EntriesTotal(entries []core.LendBorrowEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// Balances computes pending lend/borrow balances. Settled entries are
// excluded from both pending sums and the unsettled count.
func Balances(entries []core.LendBorrowEntry) core.PendingBalances {
	b := core.PendingBalances{
		LentPending:     decimal.Zero,
		BorrowedPending: decimal.Zero,
	}
	for _, e := range entries {
		if e.Settled() {
			continue
		}
		b.UnsettledCount++
		switch e.Type {
		case core.TypeLent:
			b.LentPending = b.LentPending.Add(e.Amount)
		case core.TypeBorrowed:
			b.BorrowedPending = b.BorrowedPending.Add(e.Amount)
		}
	}
	return b
}

// SortByDateDesc returns a new slice ordered newest first. The sort is
// stable, so same-day transactions keep their relative order, and the input
// slice is left untouched.
func SortByDateDesc(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Compare(out[j].Date) > 0
	})
	return out
}
