package dashboard

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/chart"
	"fintrack/internal/core"
)

type SortField string

const (
	SortByDate     SortField = "date"
	SortByAmount   SortField = "amount"
	SortByCategory SortField = "category"
	SortByType     SortField = "type"
)

type SortOrder string

const (
	Desc SortOrder = "desc"
	Asc  SortOrder = "asc"
)

// Options controls how Build formats the view. The zero value uses the
// default currency symbol, a 0.4 donut hole and newest-first history.
type Options struct {
	CurrencySymbol string
	Renderer       *chart.Renderer
	Sort           SortField
	Order          SortOrder
}

type Metric struct {
	Label    string
	Value    string
	Amount   decimal.Decimal
	Negative bool
}

type HistoryRow struct {
	Date     string
	Category string
	Type     string
	Amount   string
	IsIncome bool
}

// View is everything the dashboard page shows for one table.
type View struct {
	// Empty drives the "enter data from the sidebar" hint.
	Empty bool
	// HasExpenses is false when the donut has nothing to show.
	HasExpenses bool
	Count       int

	Income  Metric
	Expense Metric
	Balance Metric

	Summary core.Summary
	Pie     chart.Pie
	Bar     chart.BarChart
	History []HistoryRow
	Sort    SortField
	Order   SortOrder

	Currency   string
	Categories []core.Category
	Types      []core.RecordType
}

// ParseSort reads history sort parameters, falling back to date, newest first.
func ParseSort(field, order string) (SortField, SortOrder) {
	f := SortField(strings.ToLower(strings.TrimSpace(field)))
	switch f {
	case SortByDate, SortByAmount, SortByCategory, SortByType:
	default:
		f = SortByDate
	}
	o := SortOrder(strings.ToLower(strings.TrimSpace(order)))
	if o != Asc && o != Desc {
		o = Desc
	}
	return f, o
}

// Build derives the view from t.
func Build(t core.Table, opts Options) View {
	symbol := opts.CurrencySymbol
	if symbol == "" {
		symbol = core.DefaultCurrencySymbol
	}
	field, order := ParseSort(string(opts.Sort), string(opts.Order))

	summary := core.Summarize(t)
	v := View{
		Empty:       len(t) == 0,
		HasExpenses: len(summary.ExpenseBreakdown) > 0,
		Count:       summary.Count,
		Income:      metric("Total Income", summary.Totals.Income, symbol),
		Expense:     metric("Total Expense", summary.Totals.Expense, symbol),
		Balance:     metric("Balance", summary.Totals.Balance, symbol),
		Summary:     summary,
		Sort:        field,
		Order:       order,
		Currency:    symbol,
		Categories:  core.Categories(),
		Types:       core.RecordTypes(),
	}

	if opts.Renderer != nil {
		v.Pie = opts.Renderer.ExpensePie(summary.ExpenseBreakdown)
		v.Bar = opts.Renderer.TypeBar(summary.TypeBreakdown)
	} else {
		v.Pie = chart.NewPie(chart.CategorySlices(summary.ExpenseBreakdown), chart.DefaultHole)
		v.Bar = chart.NewBar(chart.TypeBars(summary.TypeBreakdown))
	}

	for _, r := range SortHistory(t, field, order) {
		v.History = append(v.History, HistoryRow{
			Date:     r.Date.String(),
			Category: string(r.Category),
			Type:     string(r.Type),
			Amount:   core.FormatAmount(r.Amount, symbol),
			IsIncome: r.Type == core.Income,
		})
	}
	return v
}

func metric(label string, amount decimal.Decimal, symbol string) Metric {
	return Metric{
		Label:    label,
		Value:    core.FormatAmount(amount, symbol),
		Amount:   amount,
		Negative: amount.IsNegative(),
	}
}

// SortHistory returns a sorted copy of t. Rows with equal keys stay in
// newest-first order, and rows on the same date keep their append order.
func SortHistory(t core.Table, field SortField, order SortOrder) core.Table {
	out := core.SortedByDateDesc(t)
	if field == SortByDate || field == "" {
		if order == Asc {
			sort.SliceStable(out, func(i, j int) bool {
				return out[i].Date.Before(out[j].Date.Time)
			})
		}
		return out
	}

	less := func(a, b core.Record) bool {
		switch field {
		case SortByAmount:
			return a.Amount.LessThan(b.Amount)
		case SortByCategory:
			return a.Category < b.Category
		case SortByType:
			return a.Type < b.Type
		}
		return false
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order == Asc {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}
