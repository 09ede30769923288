package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(date string, c Category, typ RecordType, amount string) Record {
	d, err := ParseDate(date)
	if err != nil {
		panic(err)
	}
	return Record{Date: d, Category: c, Type: typ, Amount: decimal.RequireFromString(amount)}
}

func TestTotalsEmptyTable(t *testing.T) {
	tot := ComputeTotals(nil)
	assert.True(t, tot.Income.IsZero())
	assert.True(t, tot.Expense.IsZero())
	assert.True(t, tot.Balance.IsZero())
	assert.Empty(t, ExpenseBreakdown(nil))
	assert.Empty(t, TypeBreakdown(nil))
}

func TestSummaryExample(t *testing.T) {
	tbl := Table{
		rec("2024-01-01", Salary, Income, "1000"),
		rec("2024-01-02", Food, Expense, "50"),
	}
	s := Summarize(tbl)
	assert.Equal(t, 2, s.Count)
	assert.True(t, s.Totals.Income.Equal(decimal.NewFromInt(1000)))
	assert.True(t, s.Totals.Expense.Equal(decimal.NewFromInt(50)))
	assert.True(t, s.Totals.Balance.Equal(decimal.NewFromInt(950)))
	require.Len(t, s.ExpenseBreakdown, 1)
	assert.Equal(t, Food, s.ExpenseBreakdown[0].Category)
	assert.True(t, s.ExpenseBreakdown[0].Amount.Equal(decimal.NewFromInt(50)))
}

func TestTotalsBalanceIdentity(t *testing.T) {
	tables := []Table{
		{},
		{rec("2024-03-01", Food, Expense, "12.35")},
		{rec("2024-03-01", Salary, Income, "0.10"), rec("2024-03-01", Business, Income, "0.20")},
		{
			rec("2024-03-01", Salary, Income, "100"),
			rec("2024-03-02", Food, Expense, "250.75"),
			rec("2024-03-03", Other, Expense, "0"),
		},
	}
	for i, tbl := range tables {
		tot := ComputeTotals(tbl)
		assert.True(t, tot.Balance.Equal(tot.Income.Sub(tot.Expense)), "table %d", i)
	}
}

func TestExpenseBreakdownSumsToTotal(t *testing.T) {
	tbl := Table{
		rec("2024-01-01", Salary, Income, "3000"),
		rec("2024-01-02", Other, Expense, "5"),
		rec("2024-01-03", Food, Expense, "12.40"),
		rec("2024-01-04", Transport, Expense, "2.60"),
		rec("2024-01-05", Food, Expense, "7.60"),
		rec("2024-01-06", Entertainment, Expense, "40"),
	}
	got := ExpenseBreakdown(tbl)
	sum := decimal.Zero
	var order []Category
	for _, g := range got {
		sum = sum.Add(g.Amount)
		order = append(order, g.Category)
	}
	assert.True(t, sum.Equal(ComputeTotals(tbl).Expense))
	assert.Equal(t, []Category{Food, Transport, Entertainment, Other}, order)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(20)))
}

func TestExpenseBreakdownUnknownCategoriesLast(t *testing.T) {
	tbl := Table{
		{Date: NewDate(2024, 1, 1), Category: "Zoo", Type: Expense, Amount: decimal.NewFromInt(1)},
		{Date: NewDate(2024, 1, 1), Category: "Aquarium", Type: Expense, Amount: decimal.NewFromInt(1)},
		rec("2024-01-01", Other, Expense, "1"),
	}
	got := ExpenseBreakdown(tbl)
	require.Len(t, got, 3)
	assert.Equal(t, []Category{Other, "Aquarium", "Zoo"}, []Category{got[0].Category, got[1].Category, got[2].Category})
}

func TestTypeBreakdown(t *testing.T) {
	onlyExpense := Table{rec("2024-01-01", Food, Expense, "3")}
	got := TypeBreakdown(onlyExpense)
	require.Len(t, got, 1)
	assert.Equal(t, Expense, got[0].Type)

	both := Table{
		rec("2024-01-01", Food, Expense, "3"),
		rec("2024-01-02", Salary, Income, "10"),
		rec("2024-01-03", Business, Income, "5"),
	}
	got = TypeBreakdown(both)
	require.Len(t, got, 2)
	assert.Equal(t, Income, got[0].Type)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, Expense, got[1].Type)
}

func TestSortedByDateDesc(t *testing.T) {
	tbl := Table{
		rec("2024-01-01", Food, Expense, "1"),
		rec("2024-01-03", Food, Expense, "2"),
		rec("2024-01-01", Food, Expense, "3"),
		rec("2024-01-02", Food, Expense, "4"),
	}
	got := SortedByDateDesc(tbl)
	var amounts []string
	for _, r := range got {
		amounts = append(amounts, r.Amount.String())
	}
	assert.Equal(t, []string{"2", "4", "1", "3"}, amounts)
	assert.Equal(t, "1", tbl[0].Amount.String(), "input must not be reordered")
}
