package chart

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewPieEmpty(t *testing.T) {
	p := NewPie(nil, DefaultHole)
	assert.Empty(t, p.Slices)

	p = NewPie([]Slice{{Label: "Food", Value: decimal.Zero}}, DefaultHole)
	assert.Empty(t, p.Slices, "a zero total draws nothing")
}

func TestNewPieQuarterSlice(t *testing.T) {
	p := NewPie([]Slice{{Label: "Food", Value: d("25")}, {Label: "Transport", Value: d("75")}}, DefaultHole)
	require.Len(t, p.Slices, 2)

	first, second := p.Slices[0], p.Slices[1]
	assert.Equal(t, "25.0%", first.Percent)
	assert.Equal(t, "75.0%", second.Percent)
	assert.Equal(t, Palette[0], first.Color)
	assert.Equal(t, Palette[1], second.Color)

	assert.Equal(t,
		"M 160.00 10.00 A 150.00 150.00 0 0 1 310.00 160.00 L 220.00 160.00 A 60.00 60.00 0 0 0 160.00 100.00 Z",
		first.Path)
	assert.Contains(t, second.Path, "A 150.00 150.00 0 1 1", "a sweep over half a turn uses the large arc")
	assert.True(t, strings.HasPrefix(second.Path, "M 310.00 160.00"), second.Path)
}

func TestNewPieSingleSliceIsFullRing(t *testing.T) {
	p := NewPie([]Slice{{Label: "Food", Value: d("50")}}, DefaultHole)
	require.Len(t, p.Slices, 1)
	s := p.Slices[0]
	assert.Equal(t, "100.0%", s.Percent)
	assert.Equal(t, 4, strings.Count(s.Path, "A "), "outer and inner circles, two arcs each")
	assert.Equal(t, 160.0, s.LabelX)
	assert.Equal(t, 160.0, s.LabelY)
}

func TestNewPieWithoutHole(t *testing.T) {
	p := NewPie([]Slice{{Label: "a", Value: d("1")}, {Label: "b", Value: d("1")}}, 0)
	require.Len(t, p.Slices, 2)
	assert.True(t, strings.HasPrefix(p.Slices[0].Path, "M 160.00 160.00 L"), p.Slices[0].Path)
}

func TestNewPieZeroSliceKeepsLegendEntry(t *testing.T) {
	p := NewPie([]Slice{{Label: "Food", Value: d("10")}, {Label: "Other", Value: decimal.Zero}}, DefaultHole)
	require.Len(t, p.Slices, 2)
	assert.Empty(t, p.Slices[1].Path)
	assert.Equal(t, "0.0%", p.Slices[1].Percent)
}

func TestNewPiePaletteWraps(t *testing.T) {
	var slices []Slice
	for i := 0; i < len(Palette)+1; i++ {
		slices = append(slices, Slice{Label: "x", Value: d("1")})
	}
	p := NewPie(slices, DefaultHole)
	assert.Equal(t, Palette[0], p.Slices[len(Palette)].Color)
}

func TestNewBar(t *testing.T) {
	bc := NewBar(TypeBars([]core.TypeAmount{
		{Type: core.Income, Amount: d("100")},
		{Type: core.Expense, Amount: d("50")},
	}))
	require.Len(t, bc.Bars, 2)

	income, expense := bc.Bars[0], bc.Bars[1]
	assert.Equal(t, "#00CC96", income.Color)
	assert.Equal(t, "#EF553B", expense.Color)
	assert.Equal(t, 208.0, income.Height)
	assert.Equal(t, 104.0, expense.Height)
	assert.Equal(t, bc.Baseline, income.Y+income.Height)
	assert.Equal(t, 24.0, income.X)
	assert.Equal(t, 184.0, expense.X)
	assert.Equal(t, 80.0, income.LabelX)
}

func TestNewBarAllZero(t *testing.T) {
	bc := NewBar([]Bar{{Label: "Expense", Value: decimal.Zero}})
	require.Len(t, bc.Bars, 1)
	assert.Zero(t, bc.Bars[0].Height)
	assert.Empty(t, NewBar(nil).Bars)
}

func TestRendererCachesByBreakdown(t *testing.T) {
	r := NewRenderer(DefaultHole, 8, time.Minute)
	groups := []core.CategoryAmount{{Category: core.Food, Amount: d("50")}}

	first := r.ExpensePie(groups)
	second := r.ExpensePie([]core.CategoryAmount{{Category: core.Food, Amount: d("50")}})
	assert.Equal(t, first, second)

	r.TypeBar([]core.TypeAmount{{Type: core.Expense, Amount: d("50")}})

	s := r.Stats()
	assert.EqualValues(t, 1, s.Hits)
	assert.EqualValues(t, 2, s.Misses)
	assert.Equal(t, 2, s.Size)
	assert.Len(t, r.Caches(), 2)
}
