// Package chart computes SVG geometry for the two dashboard charts: the
// expense donut and the income/expense bar chart. Templates only draw the
// paths and rectangles it returns.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// DefaultHole is the inner radius of the expense donut relative to the outer one.
const DefaultHole = 0.4

// Palette is the RdBu sequential palette used for pie slices, in order.
var Palette = []string{
	"#67001f", "#b2182b", "#d6604d", "#f4a582", "#fddbc7", "#f7f7f7",
	"#d1e5f0", "#92c5de", "#4393c3", "#2166ac", "#053061",
}

// TypeColors maps record types to their bar colors.
var TypeColors = map[core.RecordType]string{
	core.Income:  "#00CC96",
	core.Expense: "#EF553B",
}

// Slice is one input value of a pie chart.
type Slice struct {
	Label string
	Value decimal.Decimal
}

type PieSlice struct {
	Label   string
	Value   decimal.Decimal
	Percent string
	Color   string
	// Path is empty for zero-valued slices.
	Path   string
	LabelX float64
	LabelY float64
}

type Pie struct {
	Size   float64
	Hole   float64
	Slices []PieSlice
}

// Bar is one input value of a bar chart.
type Bar struct {
	Label string
	Value decimal.Decimal
	Color string
}

type BarRect struct {
	Label  string
	Value  decimal.Decimal
	Color  string
	X      float64
	Y      float64
	Width  float64
	Height float64
	// LabelX is the horizontal center of the bar.
	LabelX float64
}

type BarChart struct {
	Width    float64
	Height   float64
	Baseline float64
	Bars     []BarRect
}

const (
	pieSize    = 320.0
	piePadding = 10.0

	barWidth     = 320.0
	barHeight    = 260.0
	barTopPad    = 24.0
	barBottomPad = 28.0
	barGap       = 0.3
)

// NewPie lays out slices clockwise from twelve o'clock. Angles are
// proportional to values; a slice holding the whole total is a full ring.
// hole is clamped to [0, 0.95].
func NewPie(slices []Slice, hole float64) Pie {
	hole = math.Max(0, math.Min(hole, 0.95))
	p := Pie{Size: pieSize, Hole: hole}

	total := decimal.Zero
	for _, s := range slices {
		if s.Value.IsPositive() {
			total = total.Add(s.Value)
		}
	}
	if !total.IsPositive() {
		return p
	}

	c := pieSize / 2
	outer := c - piePadding
	inner := outer * hole
	hundred := decimal.NewFromInt(100)

	start := 0.0
	for i, s := range slices {
		ps := PieSlice{
			Label:   s.Label,
			Value:   s.Value,
			Color:   Palette[i%len(Palette)],
			Percent: "0.0%",
		}
		if s.Value.IsPositive() {
			share := s.Value.Div(total)
			ps.Percent = share.Mul(hundred).StringFixed(1) + "%"
			sweep := share.InexactFloat64() * 2 * math.Pi
			end := start + sweep
			if sweep >= 2*math.Pi-1e-9 {
				ps.Path = ringPath(c, outer, inner)
			} else {
				ps.Path = slicePath(c, outer, inner, start, end)
			}
			mid := start + sweep/2
			ps.LabelX, ps.LabelY = polar(c, (outer+inner)/2, mid)
			if sweep >= 2*math.Pi-1e-9 {
				ps.LabelX, ps.LabelY = c, c
			}
			start = end
		}
		p.Slices = append(p.Slices, ps)
	}
	return p
}

// polar returns the point at radius r and angle a, measured clockwise from
// twelve o'clock.
func polar(c, r, a float64) (float64, float64) {
	return c + r*math.Sin(a), c - r*math.Cos(a)
}

func slicePath(c, outer, inner, start, end float64) string {
	large := 0
	if end-start > math.Pi {
		large = 1
	}
	ox1, oy1 := polar(c, outer, start)
	ox2, oy2 := polar(c, outer, end)

	var b strings.Builder
	if inner <= 0 {
		fmt.Fprintf(&b, "M %s %s L %s %s A %s %s 0 %d 1 %s %s Z",
			num(c), num(c), num(ox1), num(oy1), num(outer), num(outer), large, num(ox2), num(oy2))
		return b.String()
	}
	ix1, iy1 := polar(c, inner, start)
	ix2, iy2 := polar(c, inner, end)
	fmt.Fprintf(&b, "M %s %s A %s %s 0 %d 1 %s %s L %s %s A %s %s 0 %d 0 %s %s Z",
		num(ox1), num(oy1), num(outer), num(outer), large, num(ox2), num(oy2),
		num(ix2), num(iy2), num(inner), num(inner), large, num(ix1), num(iy1))
	return b.String()
}

// ringPath draws a full circle, minus the hole, as two half arcs per edge.
// It must be filled with fill-rule evenodd.
func ringPath(c, outer, inner float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "M %s %s A %s %s 0 1 1 %s %s A %s %s 0 1 1 %s %s Z",
		num(c), num(c-outer), num(outer), num(outer), num(c), num(c+outer),
		num(outer), num(outer), num(c), num(c-outer))
	if inner > 0 {
		fmt.Fprintf(&b, " M %s %s A %s %s 0 1 0 %s %s A %s %s 0 1 0 %s %s Z",
			num(c), num(c-inner), num(inner), num(inner), num(c), num(c+inner),
			num(inner), num(inner), num(c), num(c-inner))
	}
	return b.String()
}

func num(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}

// NewBar lays out vertical bars of equal width. Heights are scaled so the
// largest value fills the plot area; negative values are drawn as zero.
func NewBar(bars []Bar) BarChart {
	bc := BarChart{Width: barWidth, Height: barHeight, Baseline: barHeight - barBottomPad}
	if len(bars) == 0 {
		return bc
	}

	top := decimal.Zero
	for _, b := range bars {
		if b.Value.GreaterThan(top) {
			top = b.Value
		}
	}

	plot := bc.Baseline - barTopPad
	slot := barWidth / float64(len(bars))
	w := slot * (1 - barGap)
	for i, b := range bars {
		h := 0.0
		if top.IsPositive() && b.Value.IsPositive() {
			h = b.Value.Div(top).InexactFloat64() * plot
		}
		x := float64(i)*slot + (slot-w)/2
		bc.Bars = append(bc.Bars, BarRect{
			Label:  b.Label,
			Value:  b.Value,
			Color:  b.Color,
			X:      round2(x),
			Y:      round2(bc.Baseline - h),
			Width:  round2(w),
			Height: round2(h),
			LabelX: round2(x + w/2),
		})
	}
	return bc
}

// TypeBars builds one bar per type group using TypeColors.
func TypeBars(groups []core.TypeAmount) []Bar {
	out := make([]Bar, 0, len(groups))
	for _, g := range groups {
		out = append(out, Bar{Label: string(g.Type), Value: g.Amount, Color: TypeColors[g.Type]})
	}
	return out
}

// CategorySlices builds one slice per expense category.
func CategorySlices(groups []core.CategoryAmount) []Slice {
	out := make([]Slice, 0, len(groups))
	for _, g := range groups {
		out = append(out, Slice{Label: string(g.Category), Value: g.Amount})
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
