package cache

import (
	"github.com/aristath/quotebar/internal/storage"
	"github.com/rs/zerolog"
)

// ForwardPECache maps symbol to quarter id to forward P/E ratio.
//
// Unlike the other caches an empty value is meaningful: a symbol whose fetch
// succeeded with no data is stored with an empty map and is not refetched
// until the quarter range changes. Only a failed fetch leaves it missing.
type ForwardPECache struct {
	*Manager[map[string]float64]
}

// NewForwardPECache creates the forward P/E history cache.
func NewForwardPECache(backend storage.Backend, codec storage.Codec, log zerolog.Logger) *ForwardPECache {
	store := newStore[map[string]float64](forwardPEDocument, backend, codec, log)
	return &ForwardPECache{NewManager(KindForwardPE, store, EpochRule{Kind: EpochQuarterRange}, cloneFloatMap, log)}
}

// SetRatios records a successful fetch. A nil or empty map is stored as empty.
func (c *ForwardPECache) SetRatios(symbol string, ratios map[string]float64) {
	c.Set(symbol, cloneFloatMap(ratios))
}

// Ratio returns symbol's forward P/E for the quarter.
func (c *ForwardPECache) Ratio(symbol, quarterID string) (float64, bool) {
	ratios, ok := c.Get(symbol)
	if !ok {
		return 0, false
	}
	v, ok := ratios[quarterID]
	return v, ok
}
