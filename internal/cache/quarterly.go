package cache

import (
	"github.com/aristath/quotebar/internal/storage"
	"github.com/rs/zerolog"
)

// QuarterlyCache maps quarter id to symbol to the quarter's final close.
// It never invalidates wholesale: quarters that leave the active window are
// pruned and the rest are kept.
type QuarterlyCache struct {
	*Manager[map[string]float64]
}

// NewQuarterlyCache creates the quarter-end price cache.
func NewQuarterlyCache(backend storage.Backend, codec storage.Codec, log zerolog.Logger) *QuarterlyCache {
	store := newStore[map[string]float64](quarterlyDocument, backend, codec, log)
	return &QuarterlyCache{NewManager(KindQuarterly, store, EpochRule{Kind: EpochNone}, cloneFloatMap, log)}
}

// Price returns symbol's close for the quarter.
func (c *QuarterlyCache) Price(quarterID, symbol string) (float64, bool) {
	var price float64
	var ok bool
	c.view(func(env *Envelope[map[string]float64]) {
		if env == nil {
			return
		}
		price, ok = env.Entries[quarterID][symbol]
	})
	return price, ok
}

// SetPrice stores symbol's close for the quarter.
func (c *QuarterlyCache) SetPrice(quarterID, symbol string, price float64) {
	c.Update(quarterID, func(current map[string]float64, present bool) map[string]float64 {
		if !present || current == nil {
			current = make(map[string]float64)
		}
		current[symbol] = price
		return current
	})
}

// MissingSymbols returns, in order, the symbols without a price for the quarter.
func (c *QuarterlyCache) MissingSymbols(quarterID string, symbols []string) []string {
	missing := make([]string, 0, len(symbols))
	c.view(func(env *Envelope[map[string]float64]) {
		var prices map[string]float64
		if env != nil {
			prices = env.Entries[quarterID]
		}
		for _, s := range symbols {
			if _, ok := prices[s]; !ok {
				missing = append(missing, s)
			}
		}
	})
	return missing
}

// Prune removes every quarter not in active and returns how many were removed.
func (c *QuarterlyCache) Prune(active []string) int {
	keep := make(map[string]bool, len(active))
	for _, id := range active {
		keep[id] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.env == nil {
		return 0
	}
	removed := 0
	for id := range c.env.Entries {
		if !keep[id] {
			delete(c.env.Entries, id)
			removed++
		}
	}
	if removed > 0 {
		c.touch()
	}
	return removed
}
