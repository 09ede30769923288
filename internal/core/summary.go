package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// TypeAmount represents an amount aggregated by record type.
type TypeAmount struct {
	Type   RecordType      `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// Totals holds the three dashboard metrics.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// Summary bundles every aggregate the dashboard renders.
type Summary struct {
	Count            int              `json:"count"`
	Totals           Totals           `json:"totals"`
	ExpenseBreakdown []CategoryAmount `json:"expense_breakdown"`
	TypeBreakdown    []TypeAmount     `json:"type_breakdown"`
}

// ComputeTotals sums income and expense amounts. Balance is income minus
// expense; an empty table yields zeros.
func ComputeTotals(t Table) Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, r := range t {
		switch r.Type {
		case Income:
			income = income.Add(r.Amount)
		case Expense:
			expense = expense.Add(r.Amount)
		}
	}
	return Totals{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

// ExpenseBreakdown groups expense records by category and sums each group.
// Groups follow the category display order; categories not in the fixed set
// come last, sorted by name. The result is empty when there are no expenses.
func ExpenseBreakdown(t Table) []CategoryAmount {
	sums := map[Category]decimal.Decimal{}
	for _, r := range t {
		if r.Type != Expense {
			continue
		}
		sums[r.Category] = sums[r.Category].Add(r.Amount)
	}
	out := make([]CategoryAmount, 0, len(sums))
	for _, c := range categories {
		if v, ok := sums[c]; ok {
			out = append(out, CategoryAmount{Category: c, Amount: v})
			delete(sums, c)
		}
	}
	var rest []Category
	for c := range sums {
		rest = append(rest, c)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, c := range rest {
		out = append(out, CategoryAmount{Category: c, Amount: sums[c]})
	}
	return out
}

// TypeBreakdown groups the whole table by type. Only types that occur are
// returned, Income before Expense, so there are at most two groups.
func TypeBreakdown(t Table) []TypeAmount {
	sums := map[RecordType]decimal.Decimal{}
	for _, r := range t {
		if !r.Type.Valid() {
			continue
		}
		sums[r.Type] = sums[r.Type].Add(r.Amount)
	}
	out := make([]TypeAmount, 0, len(sums))
	for _, typ := range recordTypes {
		if v, ok := sums[typ]; ok {
			out = append(out, TypeAmount{Type: typ, Amount: v})
		}
	}
	return out
}

// SortedByDateDesc returns a copy of the table, newest first. Records on the
// same date keep their append order.
func SortedByDateDesc(t Table) Table {
	out := t.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

func Summarize(t Table) Summary {
	return Summary{
		Count:            len(t),
		Totals:           ComputeTotals(t),
		ExpenseBreakdown: ExpenseBreakdown(t),
		TypeBreakdown:    TypeBreakdown(t),
	}
}
