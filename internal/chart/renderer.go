package chart

import (
	"strings"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// Renderer memoizes chart geometry per breakdown, so redrawing an unchanged
// dashboard skips the trigonometry.
type Renderer struct {
	hole float64
	pies *cache.LRUCache[Pie]
	bars *cache.LRUCache[BarChart]
}

func NewRenderer(hole float64, size int, ttl time.Duration) *Renderer {
	return &Renderer{
		hole: hole,
		pies: cache.NewLRUCache[Pie](size, ttl),
		bars: cache.NewLRUCache[BarChart](size, ttl),
	}
}

// Caches returns the underlying caches for registration with a cache.Manager.
func (r *Renderer) Caches() []cache.Cleaner {
	return []cache.Cleaner{r.pies, r.bars}
}

// Stats returns hit and miss counters for the pie and bar caches combined.
func (r *Renderer) Stats() cache.Stats {
	p, b := r.pies.Stats(), r.bars.Stats()
	return cache.Stats{
		Hits:      p.Hits + b.Hits,
		Misses:    p.Misses + b.Misses,
		Evictions: p.Evictions + b.Evictions,
		Size:      p.Size + b.Size,
	}
}

func (r *Renderer) ExpensePie(groups []core.CategoryAmount) Pie {
	var key strings.Builder
	for _, g := range groups {
		key.WriteString(string(g.Category))
		key.WriteByte('=')
		key.WriteString(g.Amount.String())
		key.WriteByte(';')
	}
	return r.pies.GetOrCompute(key.String(), func() Pie {
		return NewPie(CategorySlices(groups), r.hole)
	})
}

func (r *Renderer) TypeBar(groups []core.TypeAmount) BarChart {
	var key strings.Builder
	for _, g := range groups {
		key.WriteString(string(g.Type))
		key.WriteByte('=')
		key.WriteString(g.Amount.String())
		key.WriteByte(';')
	}
	return r.bars.GetOrCompute(key.String(), func() BarChart {
		return NewBar(TypeBars(groups))
	})
}
