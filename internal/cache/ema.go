package cache

import (
	"github.com/aristath/quotebar/internal/storage"
	"github.com/rs/zerolog"
)

// EMAValues holds a symbol's EMAs. Daily values come from the daily analysis
// fetch; weekly, monthly and the crossover count from the weekly fetch.
type EMAValues struct {
	Day                     *float64 `json:"day,omitempty"`
	Week                    *float64 `json:"week,omitempty"`
	Month                   *float64 `json:"month,omitempty"`
	WeekCrossoverWeeksBelow *int     `json:"weekCrossoverWeeksBelow,omitempty"`
}

// EMACache maps symbol to its EMAs. It is invalidated daily and once more on
// Friday afternoon for a preview of the weekly close.
type EMACache struct {
	*Manager[EMAValues]
}

// NewEMACache creates the EMA cache.
func NewEMACache(backend storage.Backend, codec storage.Codec, log zerolog.Logger) *EMACache {
	store := newStore[EMAValues](emaDocument, backend, codec, log)
	rule := EpochRule{Kind: EpochDaily, FridaySneakPeek: true}
	return &EMACache{NewManager(KindEMA, store, rule, cloneEMA, log)}
}

// GetMissingDaily returns the symbols without a daily EMA.
func (c *EMACache) GetMissingDaily(symbols []string) []string {
	return c.missingWhere(symbols, func(v EMAValues) bool { return v.Day == nil })
}

// GetMissingWeekly returns the symbols without a weekly EMA, including
// symbols that only have a daily value.
func (c *EMACache) GetMissingWeekly(symbols []string) []string {
	return c.missingWhere(symbols, func(v EMAValues) bool { return v.Week == nil })
}

func (c *EMACache) missingWhere(symbols []string, incomplete func(EMAValues) bool) []string {
	missing := make([]string, 0, len(symbols))
	c.view(func(env *Envelope[EMAValues]) {
		for _, s := range symbols {
			if env == nil {
				missing = append(missing, s)
				continue
			}
			v, ok := env.Entries[s]
			if !ok || incomplete(v) {
				missing = append(missing, s)
			}
		}
	})
	return missing
}

// SetDaily stores the daily EMA, keeping any weekly values.
func (c *EMACache) SetDaily(symbol string, day float64) {
	c.Update(symbol, func(current EMAValues, _ bool) EMAValues {
		current = cloneEMA(current)
		current.Day = &day
		return current
	})
}

// SetWeekly stores the weekly and monthly EMAs and crossover count, keeping
// the daily value unless a fresher one is supplied.
func (c *EMACache) SetWeekly(symbol string, v EMAValues) {
	c.Update(symbol, func(current EMAValues, _ bool) EMAValues {
		next := cloneEMA(v)
		if next.Day == nil && current.Day != nil {
			day := *current.Day
			next.Day = &day
		}
		return next
	})
}

func cloneEMA(v EMAValues) EMAValues {
	out := EMAValues{}
	if v.Day != nil {
		d := *v.Day
		out.Day = &d
	}
	if v.Week != nil {
		w := *v.Week
		out.Week = &w
	}
	if v.Month != nil {
		m := *v.Month
		out.Month = &m
	}
	if v.WeekCrossoverWeeksBelow != nil {
		n := *v.WeekCrossoverWeeksBelow
		out.WeekCrossoverWeeksBelow = &n
	}
	return out
}
